//go:build js && wasm

// Command wasm publishes a sphere world to the page as the global SphereWorld object:
//
//	const id = SphereWorld.create(0, 5, 0, 0.5, 1)
//	SphereWorld.update(1 / 60)
//	SphereWorld.positions() // [x, y, z, r, ...]
package main

import (
	"errors"
	"fmt"

	"github.com/hack-pad/safejs"

	"sphereworld/internal/bridge"
	"sphereworld/internal/config"
)

func main() {
	b := bridge.New(config.Default().World)
	api, err := safejs.Global().Get("Object")
	if err == nil {
		api, err = api.New()
	}
	if err == nil {
		err = export(api, b)
	}
	if err == nil {
		err = safejs.Global().Set("SphereWorld", api)
	}
	if err != nil {
		fmt.Println("sphereworld:", err)
		return
	}
	select {}
}

func export(api safejs.Value, b *bridge.Bridge) error {
	methods := map[string]func(args []safejs.Value) (any, error){
		"create": func(args []safejs.Value) (any, error) {
			f, err := floats(args, 5)
			if err != nil {
				return nil, err
			}
			return b.Create(f[0], f[1], f[2], f[3], f[4]), nil
		},
		"remove": func(args []safejs.Value) (any, error) {
			f, err := floats(args, 1)
			if err != nil {
				return nil, err
			}
			return b.Remove(f[0]), nil
		},
		"setVelocity": func(args []safejs.Value) (any, error) {
			f, err := floats(args, 4)
			if err != nil {
				return nil, err
			}
			return b.SetVelocity(f[0], f[1], f[2], f[3]), nil
		},
		"setActive": func(args []safejs.Value) (any, error) {
			if len(args) != 2 {
				return nil, errors.New("setActive(id, active)")
			}
			f, err := floats(args, 1)
			if err != nil {
				return nil, err
			}
			on, err := args[1].Bool()
			if err != nil {
				return nil, err
			}
			return b.SetActive(f[0], on), nil
		},
		"setGravity": func(args []safejs.Value) (any, error) {
			f, err := floats(args, 3)
			if err != nil {
				return nil, err
			}
			return b.SetGravity(f[0], f[1], f[2]), nil
		},
		"update": func(args []safejs.Value) (any, error) {
			f, err := floats(args, 1)
			if err != nil {
				return nil, err
			}
			return b.Update(f[0]), nil
		},
		"checkCollision": func(args []safejs.Value) (any, error) {
			f, err := floats(args, 4)
			if err != nil {
				return nil, err
			}
			return b.CheckCollision(f[0], f[1], f[2], f[3]), nil
		},
		"body": func(args []safejs.Value) (any, error) {
			f, err := floats(args, 1)
			if err != nil {
				return nil, err
			}
			return b.Body(f[0]), nil
		},
		"bodies": func([]safejs.Value) (any, error) {
			return b.Bodies(), nil
		},
		"positions": func([]safejs.Value) (any, error) {
			return b.Positions(), nil
		},
		"stats": func([]safejs.Value) (any, error) {
			return b.Stats(), nil
		},
		"loadScenario": func(args []safejs.Value) (any, error) {
			if len(args) != 1 {
				return nil, errors.New("loadScenario(yamlText)")
			}
			text, err := args[0].String()
			if err != nil {
				return nil, err
			}
			return b.LoadScenario(text), nil
		},
		"reset": func([]safejs.Value) (any, error) {
			b.Reset()
			return true, nil
		},
	}
	for name, m := range methods {
		fn, err := safejs.FuncOf(func(_ safejs.Value, args []safejs.Value) any {
			v, err := m(args)
			if err != nil {
				return map[string]any{"error": name + ": " + err.Error()}
			}
			return v
		})
		if err != nil {
			return err
		}
		if err := api.Set(name, fn.Value()); err != nil {
			return err
		}
	}
	return nil
}

func floats(args []safejs.Value, n int) ([]float64, error) {
	if len(args) < n {
		return nil, fmt.Errorf("expected %d arguments, got %d", n, len(args))
	}
	out := make([]float64, n)
	for i := range n {
		f, err := args[i].Float()
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

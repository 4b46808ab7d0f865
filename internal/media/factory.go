package media

import (
	"errors"
	"fmt"
)

// Make creates an element with an engine-chosen name.
func Make(engine Engine, factory string) (Element, error) {
	return MakeNamed(engine, factory, "")
}

// MakeNamed creates an element with a stable name so it can be found again.
// Any engine failure is reported as a *MissingElementError.
func MakeNamed(engine Engine, factory, name string) (Element, error) {
	el, err := engine.NewElement(factory, name)
	if err != nil {
		var missing *MissingElementError
		if errors.As(err, &missing) {
			return nil, missing
		}
		return nil, &MissingElementError{Factory: factory, Cause: err}
	}
	return el, nil
}

// Spec describes one element to build: factory, optional name and properties.
type Spec struct {
	Factory    string
	Name       string
	Properties map[string]any
}

// Build creates every element in specs and applies its properties, in order.
func Build(engine Engine, specs ...Spec) ([]Element, error) {
	elements := make([]Element, 0, len(specs))
	for _, spec := range specs {
		el, err := MakeNamed(engine, spec.Factory, spec.Name)
		if err != nil {
			return nil, err
		}
		for prop, value := range spec.Properties {
			if err := el.SetProperty(prop, value); err != nil {
				return nil, fmt.Errorf("set %s.%s: %w", spec.Factory, prop, err)
			}
		}
		elements = append(elements, el)
	}
	return elements, nil
}

package descriptor

import "github.com/vk/mgmtgrid/internal/namehash"

// Summary is the serializable view of a Descriptor, used by "describe".
type Summary struct {
	Type       string             `yaml:"type"`
	Attributes []AttributeSummary `yaml:"attributes,omitempty"`
	Operations []OperationSummary `yaml:"operations,omitempty"`
}

type AttributeSummary struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Readable    bool   `yaml:"readable"`
	Writable    bool   `yaml:"writable"`
	Poppable    bool   `yaml:"poppable,omitempty"`
	Description string `yaml:"description,omitempty"`
}

type OperationSummary struct {
	Name        string `yaml:"name"`
	Signature   string `yaml:"signature"`
	Returns     string `yaml:"returns"`
	Description string `yaml:"description,omitempty"`
}

// Summarize flattens d into its serializable form.
func Summarize(d *Descriptor) Summary {
	s := Summary{Type: d.Type}
	for _, a := range d.Attributes {
		s.Attributes = append(s.Attributes, AttributeSummary{
			Name:        a.Name,
			Type:        namehash.TypeName(a.ValueType()),
			Readable:    a.Readable(),
			Writable:    a.Writable(),
			Poppable:    a.Poppable,
			Description: a.Description,
		})
	}
	for _, o := range d.Operations {
		s.Operations = append(s.Operations, OperationSummary{
			Name:        o.Name,
			Signature:   o.Signature(),
			Returns:     namehash.TypeName(o.Method.Result),
			Description: o.Description,
		})
	}
	return s
}

package conversation

// ParamType is the primitive type of a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeBoolean ParamType = "boolean"
)

// Parameter describes one argument of a tool.
type Parameter struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Enum        []string
}

// FunctionDecl is a tool signature exposed to the assistant.
type FunctionDecl struct {
	Name        string
	Description string
	Parameters  []Parameter
}

// Required returns the names of the required parameters in declaration order.
func (d FunctionDecl) Required() []string {
	var names []string
	for _, p := range d.Parameters {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

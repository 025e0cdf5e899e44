package provisioner

import "fmt"

// ResourceAddress uniquely identifies one resource within a manifest: a
// resource type paired with a logical name scoped to that type.
type ResourceAddress struct {
	TypeTag     string `json:"type_tag"`
	LogicalName string `json:"logical_name"`
}

// String renders the address in its persistence-key form, "{type}.{name}".
func (a ResourceAddress) String() string {
	return fmt.Sprintf("%s.%s", a.TypeTag, a.LogicalName)
}

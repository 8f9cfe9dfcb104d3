package mapmarshal

// Accessor abstracts the host object model. The binding package provides
// implementations based on accessor tables and on reflection.
//
// Get must not have observable side effects. Set must either apply fully or
// fail. Construct receives the entry's TypeID and the converted constructor
// arguments in declared order; absent arguments are passed as nil.
type Accessor interface {
	Get(instance any, property string) (any, error)
	Set(instance any, property string, value any) error
	Construct(typeID string, args []any) (any, error)
}

package store

// Kind identifies what an action means.
// Kinds are stable strings, unique per feature, conventionally "[Feature] Verb".
type Kind string

// Action is an immutable message describing an intended or completed state transition.
//
// Concrete actions are plain structs with value receivers. A feature declares its
// actions as a closed set by adding an unexported marker method to its own
// action interface:
//
//	type Action interface {
//	    store.Action
//	    isProductAction()
//	}
//
//	type Load struct{}
//
//	func (Load) Kind() store.Kind { return KindLoad }
//	func (Load) isProductAction() {}
type Action interface {
	Kind() Kind
}

// Init is dispatched implicitly when a Store is created so that every feature
// can materialize its initial slice.
type Init struct{}

// KindInit is the kind of the Init action.
const KindInit Kind = "[Store] Init"

func (Init) Kind() Kind { return KindInit }

package engine

import "sort"

// ============================================================================
// ROW VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The engine never owns consumer data. It reads through this interface.
//
// Implementations:
//   SliceView      wraps []Row (CSV, XLSX, ad-hoc)
//   DomainView[T]  reads typed structs via accessor functions (zero-copy)
//   SubView        is a filtered subset (indices into parent, zero-copy)
//
// A filtered view is a new dataset; the parent stays untouched.
// ============================================================================

// RowView provides indexed access to a dataset.
type RowView interface {
	Len() int
	Value(index int, key string) Value
	Keys() []string // known columns
}

// ============================================================================
// SLICE VIEW — wraps []Row
// ============================================================================

// SliceView wraps a []Row slice as a RowView.
type SliceView struct {
	rows []Row
	keys []string
}

// NewSliceView creates a RowView from a []Row slice. A nil slice yields an
// empty view. Keys are the given column order (typically the parsed header);
// without it, the union of row columns is used in sorted order.
func NewSliceView(rows []Row, keys ...string) RowView {
	v := &SliceView{rows: rows, keys: keys}
	if len(keys) == 0 {
		v.cacheKeys()
	}
	return v
}

func (v *SliceView) cacheKeys() {
	seen := make(map[string]bool)
	for _, r := range v.rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				v.keys = append(v.keys, k)
			}
		}
	}
	sort.Strings(v.keys)
}

func (v *SliceView) Len() int { return len(v.rows) }

func (v *SliceView) Value(i int, key string) Value {
	if i < 0 || i >= len(v.rows) {
		return Value{}
	}
	return v.rows[i].Get(key)
}

func (v *SliceView) Keys() []string { return v.keys }

// ============================================================================
// SUB VIEW — filtered subset (zero-copy)
// ============================================================================

// SubView is a filtered subset of a parent RowView.
// Holds indices into the parent, no data copy.
type SubView struct {
	parent  RowView
	indices []int
}

func newSubView(parent RowView, indices []int) RowView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Value(i int, key string) Value {
	if i < 0 || i >= len(v.indices) {
		return Value{}
	}
	return v.parent.Value(v.indices[i], key)
}

func (v *SubView) Keys() []string { return v.parent.Keys() }

// emptyView stands in for a nil view.
type emptyView struct{}

func (emptyView) Len() int                { return 0 }
func (emptyView) Value(int, string) Value { return Value{} }
func (emptyView) Keys() []string          { return nil }

func orEmpty(view RowView) RowView {
	if view == nil {
		return emptyView{}
	}
	return view
}

// ============================================================================
// DOMAIN ADAPTER — Zero-copy typed struct access
// ============================================================================
//
// Usage:
//
//	adapter := engine.NewDomainAdapter[Response]().
//	    Column("frage_a1", func(r Response) any { return r.A1 }).
//	    Column("zugehoerigkeit", func(r Response) any { return r.Group })
//
//	snap := engine.Aggregate(adapter.Bind(responses), survey)
//
// ============================================================================

// DomainAdapter builds a RowView from typed structs.
// Declare once, bind many times.
type DomainAdapter[T any] struct {
	order []string
	cols  map[string]func(T) any
}

// NewDomainAdapter creates a new adapter for type T.
func NewDomainAdapter[T any]() *DomainAdapter[T] {
	return &DomainAdapter[T]{cols: make(map[string]func(T) any)}
}

// Column registers a column accessor. The returned raw value is coerced on read.
func (a *DomainAdapter[T]) Column(key string, fn func(T) any) *DomainAdapter[T] {
	if _, exists := a.cols[key]; !exists {
		a.order = append(a.order, key)
	}
	a.cols[key] = fn
	return a
}

// Bind creates a RowView from a data slice. Zero-copy: holds a reference.
func (a *DomainAdapter[T]) Bind(data []T) RowView {
	return &DomainView[T]{data: data, cols: a.cols, keys: a.order}
}

// DomainView reads typed struct fields via registered accessor functions.
type DomainView[T any] struct {
	data []T
	cols map[string]func(T) any
	keys []string
}

func (v *DomainView[T]) Len() int { return len(v.data) }

func (v *DomainView[T]) Value(i int, key string) Value {
	if i < 0 || i >= len(v.data) {
		return Value{}
	}
	if fn, ok := v.cols[key]; ok {
		return Coerce(fn(v.data[i]))
	}
	return Value{}
}

func (v *DomainView[T]) Keys() []string { return v.keys }

package chunk

// Table maps IDs to records for one file. It is built once and read-only
// afterwards, so it can be shared between goroutines.
type Table struct {
	records map[ID]Record
	order   []Record
}

// Build indexes records by ID. Records keep their input order for iteration.
func Build(records []Record) (*Table, error) {
	t := &Table{
		records: make(map[ID]Record, len(records)),
		order:   make([]Record, 0, len(records)),
	}
	for _, r := range records {
		id := r.ChunkHeader().ID
		if prev, ok := t.records[id]; ok {
			return nil, &DuplicateIDError{ID: id, First: prev.Kind(), Then: r.Kind()}
		}
		t.records[id] = r
		t.order = append(t.order, r)
	}
	return t, nil
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.order)
}

// Records returns all records in file order.
func (t *Table) Records() []Record {
	return t.order
}

// Get returns the record with the given ID. Sentinel IDs never resolve.
func (t *Table) Get(id ID) (Record, bool) {
	if !id.Valid() {
		return nil, false
	}
	r, ok := t.records[id]
	return r, ok
}

// Lookup resolves id to a record of type T.
func Lookup[T Record](t *Table, id ID) (T, error) {
	var zero T
	r, ok := t.Get(id)
	if !ok {
		return zero, &UnresolvedReferenceError{ID: id, Want: zero.Kind()}
	}
	v, ok := r.(T)
	if !ok {
		return zero, &UnresolvedReferenceError{ID: id, Want: zero.Kind(), Got: r.Kind()}
	}
	return v, nil
}

// All returns every record of type T in file order.
func All[T Record](t *Table) []T {
	var out []T
	for _, r := range t.order {
		if v, ok := r.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// Nodes returns all Node records in file order.
func (t *Table) Nodes() []*Node {
	return All[*Node](t)
}

// NodeByName returns the first Node with exactly this name.
func (t *Table) NodeByName(name string) (*Node, bool) {
	for _, r := range t.order {
		if n, ok := r.(*Node); ok && n.Name == name {
			return n, true
		}
	}
	return nil, false
}

// Stream resolves id to a DataStream and checks its type.
func (t *Table) Stream(id ID, want StreamType) (*DataStream, error) {
	ds, err := Lookup[*DataStream](t, id)
	if err != nil {
		return nil, err
	}
	if ds.Type != want {
		return nil, &UnresolvedReferenceError{
			ID:     id,
			Want:   KindDataStream,
			Got:    KindDataStream,
			Detail: "stream is " + ds.Type.String() + ", want " + want.String(),
		}
	}
	return ds, nil
}

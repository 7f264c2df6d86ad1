package cf

// Handle is a lightweight, comparable reference to a column family,
// passed into Put/Get/Delete/NewIter operations. It stays valid as long
// as the column family it names exists; a dropped CF's old handles
// simply stop resolving via Set.GetCF.
type Handle struct {
	id   uint32
	name string
}

// NewHandle builds a Handle directly from an ID and name, for callers
// (transactions, tests) that need to address a column family without
// going through a Set — mirroring the reference implementation's public
// ColumnFamilyHandle::new constructor.
func NewHandle(id uint32, name string) Handle {
	return Handle{id: id, name: name}
}

// ID returns the column family's internal ID.
func (h Handle) ID() uint32 { return h.id }

// Name returns the column family's name.
func (h Handle) Name() string { return h.name }

package ecs

// EntityID packs the entity type into the upper 8 bits and a per-type index
// into the lower 24 bits, so ids are unique across types and fit the 32-bit
// object id field clients expect.
type EntityID uint32

const (
	indexBits = 24
	indexMask = 1<<indexBits - 1
)

func NewEntityID(kind uint8, index uint32) EntityID {
	return EntityID(uint32(kind)<<indexBits | index&indexMask)
}

func (id EntityID) Kind() uint8   { return uint8(id >> indexBits) }
func (id EntityID) Index() uint32 { return uint32(id) & indexMask }
func (id EntityID) IsZero() bool  { return id == 0 }

// EntityPool allocates ids for a single entity type, reusing destroyed
// indices. Index 0 is never handed out so the zero id stays invalid.
type EntityPool struct {
	kind      uint8
	alive     []bool
	freeList  []uint32
	nextIndex uint32
}

func NewEntityPool(kind uint8) *EntityPool {
	return &EntityPool{
		kind:      kind,
		alive:     make([]bool, 1, 1024),
		freeList:  make([]uint32, 0, 256),
		nextIndex: 1,
	}
}

func (p *EntityPool) Create() EntityID {
	if len(p.freeList) > 0 {
		idx := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		p.alive[idx] = true
		return NewEntityID(p.kind, idx)
	}
	idx := p.nextIndex
	p.nextIndex++
	p.alive = append(p.alive, true)
	return NewEntityID(p.kind, idx)
}

func (p *EntityPool) Alive(id EntityID) bool {
	if id.Kind() != p.kind {
		return false
	}
	idx := id.Index()
	if idx >= p.nextIndex {
		return false
	}
	return p.alive[idx]
}

func (p *EntityPool) Destroy(id EntityID) {
	if !p.Alive(id) {
		return // wrong type or already destroyed
	}
	idx := id.Index()
	p.alive[idx] = false
	p.freeList = append(p.freeList, idx)
}

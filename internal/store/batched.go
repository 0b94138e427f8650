package store

import "sync"

// Batch buffers everything declared in one file using fake (negative)
// IDs, so a worker can build it without touching SQLite. CommitBatch
// replaces the file's rows with the batch in one transaction.
type Batch struct {
	mu sync.Mutex

	File      File
	Classes   []Class
	Members   []Member
	Functions []Function
	Defines   []Define
	Includes  []Include
	Variables []Variable

	nextFakeID int64 // starts at -1, decrements
}

// NewBatch creates an empty batch for f.
func NewBatch(f File) *Batch {
	return &Batch{File: f, nextFakeID: -1}
}

func (b *Batch) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

// AddClass buffers c and returns its fake ID, for use as Member.ClassID.
func (b *Batch) AddClass(c Class) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.ID = b.allocFakeID()
	b.Classes = append(b.Classes, c)
	return c.ID
}

func (b *Batch) AddMember(m Member) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m.ID = b.allocFakeID()
	b.Members = append(b.Members, m)
}

func (b *Batch) AddFunction(f Function) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f.ID = b.allocFakeID()
	b.Functions = append(b.Functions, f)
}

func (b *Batch) AddDefine(d Define) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d.ID = b.allocFakeID()
	b.Defines = append(b.Defines, d)
}

func (b *Batch) AddInclude(inc Include) {
	b.mu.Lock()
	defer b.mu.Unlock()
	inc.ID = b.allocFakeID()
	b.Includes = append(b.Includes, inc)
}

func (b *Batch) AddVariable(v Variable) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v.ID = b.allocFakeID()
	b.Variables = append(b.Variables, v)
}

// SetMethodEnd records the closing offset of the last buffered method named
// name in class classID.
func (b *Batch) SetMethodEnd(classID int64, name string, pos int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.Members) - 1; i >= 0; i-- {
		m := &b.Members[i]
		if m.ClassID == classID && m.Kind == KindMethod && m.Name == name {
			m.EndPos = pos
			return
		}
	}
}

// SetFunctionEnd records the closing offset of the last buffered function
// named name.
func (b *Batch) SetFunctionEnd(name string, pos int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.Functions) - 1; i >= 0; i-- {
		if b.Functions[i].Name == name {
			b.Functions[i].EndPos = pos
			return
		}
	}
}

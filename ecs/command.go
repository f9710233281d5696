package ecs

// commandTag identifies which variant a queued command record holds. This
// keeps the original engine's raw tagged-byte-stream command buffer
// structure while replacing manual byte packing with a Go tagged struct;
// the flush loop is a switch over the tag, as the source design calls for.
type commandTag uint8

const (
	cmdSpawn commandTag = iota
	cmdDespawn
	cmdInsert
	cmdRemove
	cmdInsertResource
)

// commandRecord is one queued, not-yet-applied mutation. Only the field(s)
// relevant to tag are populated; apply is the per-variant payload's
// flush action, captured as a closure over the component's concrete type so
// CommandBuffer itself stays free of generics.
type commandRecord struct {
	tag    commandTag
	entity Entity
	apply  func(w *World)
}

// CommandBuffer defers structural mutations (spawn, despawn, insert,
// remove, resource install) until the scheduler's sync point.
// Each system receives its own CommandBuffer; there is no sharing and thus
// no locking required within a tick.
type CommandBuffer struct {
	records []commandRecord
}

// NewCommandBuffer returns an empty buffer.
func NewCommandBuffer() *CommandBuffer {
	return &CommandBuffer{}
}

// Spawn queues the creation of a new entity. The entity does not exist
// until Flush, which then calls fn (if non-nil) with the real handle.
// Callers needing the real handle immediately should use World.Spawn
// directly instead of going through the command buffer.
func (b *CommandBuffer) Spawn(fn func(w *World, e Entity)) {
	b.records = append(b.records, commandRecord{
		tag: cmdSpawn,
		apply: func(w *World) {
			e := w.Spawn()
			if fn != nil {
				fn(w, e)
			}
		},
	})
}

// Despawn queues e's destruction.
func (b *CommandBuffer) Despawn(e Entity) {
	b.records = append(b.records, commandRecord{
		tag:    cmdDespawn,
		entity: e,
		apply:  func(w *World) { w.Despawn(e) },
	})
}

// CommandInsert queues inserting/overwriting component T on e. A package
// function (not a CommandBuffer method) because Go methods cannot be
// generic.
func CommandInsert[T any](b *CommandBuffer, e Entity, value T) {
	b.records = append(b.records, commandRecord{
		tag:    cmdInsert,
		entity: e,
		apply:  func(w *World) { Insert[T](w, e, value) },
	})
}

// CommandRemove queues removing component T from e.
func CommandRemove[T any](b *CommandBuffer, e Entity) {
	b.records = append(b.records, commandRecord{
		tag:    cmdRemove,
		entity: e,
		apply:  func(w *World) { Remove[T](w, e) },
	})
}

// CommandInsertResource queues installing resource T.
func CommandInsertResource[T any](b *CommandBuffer, value T) {
	b.records = append(b.records, commandRecord{
		tag:   cmdInsertResource,
		apply: func(w *World) { SetResource[T](w, value) },
	})
}

// Flush applies every queued record to w in issuance order. The scheduler
// calls Flush on every system's buffer in system-execution order at the
// tick's sync point.
func (b *CommandBuffer) Flush(w *World) {
	for _, r := range b.records {
		switch r.tag {
		case cmdSpawn, cmdDespawn, cmdInsert, cmdRemove, cmdInsertResource:
			r.apply(w)
		}
	}
	b.records = b.records[:0]
}

// Len reports the number of queued, unflushed records.
func (b *CommandBuffer) Len() int { return len(b.records) }

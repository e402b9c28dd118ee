package draw

import (
	"fmt"
	"iter"
	"math"

	"drawmgr/internal/gpu"
)

// CommandKind is the 4-bit tag stored next to each command slot.
type CommandKind uint8

const (
	CmdDraw              CommandKind = 0
	CmdDrawRange         CommandKind = 1
	CmdDrawInstance      CommandKind = 2
	CmdDrawInstanceRange CommandKind = 3
	CmdDrawProcedural    CommandKind = 4
	// 5 to 11 are free.
	CmdClear           CommandKind = 12
	CmdSetMutableState CommandKind = 13
	CmdSetStencil      CommandKind = 14
	CmdSetSelectID     CommandKind = 15
)

var commandKindNames = [...]string{
	CmdDraw:              "Draw",
	CmdDrawRange:         "DrawRange",
	CmdDrawInstance:      "DrawInstance",
	CmdDrawInstanceRange: "DrawInstanceRange",
	CmdDrawProcedural:    "DrawProcedural",
	CmdClear:             "Clear",
	CmdSetMutableState:   "SetMutableState",
	CmdSetStencil:        "SetStencil",
	CmdSetSelectID:       "SetSelectID",
}

func (k CommandKind) String() string {
	if int(k) < len(commandKindNames) && commandKindNames[k] != "" {
		return commandKindNames[k]
	}
	return fmt.Sprintf("CommandKind(%d)", uint8(k))
}

// IsDraw reports whether commands of this kind issue geometry.
func (k CommandKind) IsDraw() bool {
	return k <= CmdDrawProcedural
}

// Command is a recorded operation. The concrete types below are the only
// implementations.
type Command interface {
	Kind() CommandKind
	payload() cmdPayload
}

// DrawCommand draws a whole batch once.
type DrawCommand struct {
	Batch  *gpu.Batch
	Handle ResourceHandle
}

// DrawRangeCommand draws a vertex range of a batch.
type DrawRangeCommand struct {
	Batch     *gpu.Batch
	Handle    ResourceHandle
	VertFirst uint32
	VertCount uint32
}

// DrawInstanceCommand draws a batch Count times. With UseAttrs and a zero
// count the instance count comes from the batch attribute buffer.
type DrawInstanceCommand struct {
	Batch    *gpu.Batch
	Handle   ResourceHandle
	Count    uint32
	UseAttrs bool
}

// DrawInstanceRangeCommand draws a range of the batch instances.
type DrawInstanceRangeCommand struct {
	Batch     *gpu.Batch
	Handle    ResourceHandle
	InstFirst uint32
	InstCount uint32
}

// DrawProceduralCommand draws VertCount vertices of a vertex-less batch.
type DrawProceduralCommand struct {
	Batch     *gpu.Batch
	Handle    ResourceHandle
	VertCount uint32
}

// ClearBits select the attachments a ClearCommand clears.
type ClearBits uint8

const (
	ClearColor ClearBits = 1 << iota
	ClearDepth
	ClearStencil
)

// ClearCommand clears the bound framebuffer.
type ClearCommand struct {
	Bits       ClearBits
	R, G, B, A uint8
	Depth      float32
	Stencil    uint8
}

// MutableStateCommand changes render state for the rest of the group.
type MutableStateCommand struct {
	Enable, Disable State
}

// StencilCommand sets the stencil write mask, reference and compare mask.
type StencilCommand struct {
	WriteMask, Reference, CompareMask uint8
}

// SelectIDCommand sets the id written by following draws in select mode.
type SelectIDCommand struct {
	ID uint32
}

func (DrawCommand) Kind() CommandKind              { return CmdDraw }
func (DrawRangeCommand) Kind() CommandKind         { return CmdDrawRange }
func (DrawInstanceCommand) Kind() CommandKind      { return CmdDrawInstance }
func (DrawInstanceRangeCommand) Kind() CommandKind { return CmdDrawInstanceRange }
func (DrawProceduralCommand) Kind() CommandKind    { return CmdDrawProcedural }
func (ClearCommand) Kind() CommandKind             { return CmdClear }
func (MutableStateCommand) Kind() CommandKind      { return CmdSetMutableState }
func (StencilCommand) Kind() CommandKind           { return CmdSetStencil }
func (SelectIDCommand) Kind() CommandKind          { return CmdSetSelectID }

// cmdPayload is the storage shared by every command kind. The tag array of
// the chunk says how to read it.
type cmdPayload struct {
	batch  *gpu.Batch
	handle ResourceHandle
	v      [4]uint32
}

func (c DrawCommand) payload() cmdPayload {
	return cmdPayload{batch: c.Batch, handle: c.Handle}
}

func (c DrawRangeCommand) payload() cmdPayload {
	return cmdPayload{batch: c.Batch, handle: c.Handle, v: [4]uint32{c.VertFirst, c.VertCount}}
}

func (c DrawInstanceCommand) payload() cmdPayload {
	var attrs uint32
	if c.UseAttrs {
		attrs = 1
	}
	return cmdPayload{batch: c.Batch, handle: c.Handle, v: [4]uint32{c.Count, attrs}}
}

func (c DrawInstanceRangeCommand) payload() cmdPayload {
	return cmdPayload{batch: c.Batch, handle: c.Handle, v: [4]uint32{c.InstFirst, c.InstCount}}
}

func (c DrawProceduralCommand) payload() cmdPayload {
	return cmdPayload{batch: c.Batch, handle: c.Handle, v: [4]uint32{c.VertCount}}
}

func (c ClearCommand) payload() cmdPayload {
	rgba := uint32(c.R) | uint32(c.G)<<8 | uint32(c.B)<<16 | uint32(c.A)<<24
	return cmdPayload{v: [4]uint32{uint32(c.Bits), rgba, math.Float32bits(c.Depth), uint32(c.Stencil)}}
}

func (c MutableStateCommand) payload() cmdPayload {
	return cmdPayload{v: [4]uint32{uint32(c.Enable), uint32(c.Disable)}}
}

func (c StencilCommand) payload() cmdPayload {
	return cmdPayload{v: [4]uint32{uint32(c.WriteMask), uint32(c.Reference), uint32(c.CompareMask)}}
}

func (c SelectIDCommand) payload() cmdPayload {
	return cmdPayload{v: [4]uint32{c.ID}}
}

func decodeCommand(k CommandKind, p *cmdPayload) Command {
	switch k {
	case CmdDraw:
		return DrawCommand{Batch: p.batch, Handle: p.handle}
	case CmdDrawRange:
		return DrawRangeCommand{Batch: p.batch, Handle: p.handle, VertFirst: p.v[0], VertCount: p.v[1]}
	case CmdDrawInstance:
		return DrawInstanceCommand{Batch: p.batch, Handle: p.handle, Count: p.v[0], UseAttrs: p.v[1] != 0}
	case CmdDrawInstanceRange:
		return DrawInstanceRangeCommand{Batch: p.batch, Handle: p.handle, InstFirst: p.v[0], InstCount: p.v[1]}
	case CmdDrawProcedural:
		return DrawProceduralCommand{Batch: p.batch, Handle: p.handle, VertCount: p.v[0]}
	case CmdClear:
		return ClearCommand{
			Bits: ClearBits(p.v[0]),
			R:    uint8(p.v[1]), G: uint8(p.v[1] >> 8), B: uint8(p.v[1] >> 16), A: uint8(p.v[1] >> 24),
			Depth:   math.Float32frombits(p.v[2]),
			Stencil: uint8(p.v[3]),
		}
	case CmdSetMutableState:
		return MutableStateCommand{Enable: State(p.v[0]), Disable: State(p.v[1])}
	case CmdSetStencil:
		return StencilCommand{WriteMask: uint8(p.v[0]), Reference: uint8(p.v[1]), CompareMask: uint8(p.v[2])}
	case CmdSetSelectID:
		return SelectIDCommand{ID: p.v[0]}
	}
	panic(fmt.Sprintf("draw: bad command tag %d", k))
}

const (
	cmdChunkLen      = 96
	cmdSmallChunkLen = 6
	tagBits          = 4
	tagsPerWord      = 64 / tagBits
)

// commandChunk is one link of a command chain: a payload array plus a
// packed array of 4-bit kind tags.
type commandChunk struct {
	next *commandChunk
	used int
	tags []uint64
	cmds []cmdPayload
}

type stdCommandChunk struct {
	commandChunk
	tagBuf [cmdChunkLen / tagsPerWord]uint64
	cmdBuf [cmdChunkLen]cmdPayload
}

type smallCommandChunk struct {
	commandChunk
	tagBuf [(cmdSmallChunkLen + tagsPerWord - 1) / tagsPerWord]uint64
	cmdBuf [cmdSmallChunkLen]cmdPayload
}

func (c *commandChunk) kind(i int) CommandKind {
	shift := uint(i%tagsPerWord) * tagBits
	return CommandKind(c.tags[i/tagsPerWord]>>shift) & 0xF
}

func (c *commandChunk) setKind(i int, k CommandKind) {
	shift := uint(i%tagsPerWord) * tagBits
	w := &c.tags[i/tagsPerWord]
	*w = *w&^(0xF<<shift) | uint64(k)<<shift
}

func (c *commandChunk) full() bool {
	return c.used == len(c.cmds)
}

// sortable reports whether the batch sorter may reorder the chunk: a
// standard chunk holding plain Draw commands only. CmdDraw is tag 0, so a
// chunk qualifies when every tag word is zero.
func (c *commandChunk) sortable() bool {
	if len(c.cmds) != cmdChunkLen || c.used < 2 {
		return false
	}
	for _, w := range c.tags {
		if w != 0 {
			return false
		}
	}
	return true
}

func (m *Manager) newCommandChunk(small bool) *commandChunk {
	if small {
		s := m.smallCmdChunks.Alloc()
		s.tags, s.cmds = s.tagBuf[:], s.cmdBuf[:]
		return &s.commandChunk
	}
	s := m.cmdChunks.Alloc()
	s.tags, s.cmds = s.tagBuf[:], s.cmdBuf[:]
	return &s.commandChunk
}

// appendCommand adds cmd at the end of the group's chain. The first chunk
// of a group is small; once it overflows standard chunks follow.
func (g *ShadingGroup) appendCommand(cmd Command) {
	last := g.cmds.last
	if last == nil || last.full() {
		c := g.mgr.newCommandChunk(last == nil)
		if last == nil {
			g.cmds.first = c
		} else {
			last.next = c
		}
		g.cmds.last = c
		last = c
	}
	i := last.used
	last.cmds[i] = cmd.payload()
	last.setKind(i, cmd.Kind())
	last.used++
}

// eachCommand visits the chain in replay order until fn returns false.
func (g *ShadingGroup) eachCommand(fn func(k CommandKind, p *cmdPayload) bool) {
	for c := g.cmds.first; c != nil; c = c.next {
		for i := 0; i < c.used; i++ {
			if !fn(c.kind(i), &c.cmds[i]) {
				return
			}
		}
	}
}

// Commands iterates over the recorded commands in replay order.
func (g *ShadingGroup) Commands() iter.Seq[Command] {
	return func(yield func(Command) bool) {
		g.eachCommand(func(k CommandKind, p *cmdPayload) bool {
			return yield(decodeCommand(k, p))
		})
	}
}

// IsEmpty reports whether the group holds no draw command. State commands
// do not count.
func (g *ShadingGroup) IsEmpty() bool {
	empty := true
	g.eachCommand(func(k CommandKind, _ *cmdPayload) bool {
		if k.IsDraw() {
			empty = false
		}
		return empty
	})
	return empty
}

// firstDrawHandle returns the handle of the first draw command, or the unit
// handle when the group has none.
func (g *ShadingGroup) firstDrawHandle() ResourceHandle {
	var h ResourceHandle
	g.eachCommand(func(k CommandKind, p *cmdPayload) bool {
		if k.IsDraw() {
			h = p.handle
			return false
		}
		return true
	})
	return h
}

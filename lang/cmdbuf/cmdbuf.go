// Package cmdbuf implements the deferred command buffer: a doubly
// linked sequence of commands that translators populate by calling
// back through the grammar.Emitter interface, and that generate()
// resolves to a flat bytecode.Program in three passes.
package cmdbuf

import (
	"container/list"
	"fmt"

	"github.com/shadowCow/corelang/lang/bytecode"
	"github.com/shadowCow/corelang/lang/grammar"
)

type kind int

const (
	kindTask kind = iota
	kindTranslate
	kindPositionRequest
	kindPositionReply
	kindItem
)

type command struct {
	kind     kind
	task     func(e *Buffer)
	node     grammar.TranslateNode
	posIndex int
	item     bytecode.Item
}

type loopBounds struct {
	startIndex int
	endIndex   int
	scopeDepth int
}

// Buffer is the command sequence described for deferred bytecode
// emission. It implements grammar.Emitter.
type Buffer struct {
	list   *list.List
	cursor *list.Element

	nextPosIndex int
	loopStack    []loopBounds
	funcFloors   []int
	scopeDepth   int

	failure error
}

// New creates an empty command buffer.
func New() *Buffer {
	return &Buffer{list: list.New()}
}

func (b *Buffer) insertAfterCursor(c *command) *list.Element {
	var el *list.Element
	if b.cursor == nil {
		el = b.list.PushFront(c)
	} else {
		el = b.list.InsertAfter(c, b.cursor)
	}
	b.cursor = el
	return el
}

// PushRoot seeds the buffer with a task, run at the head of pass 1.
// Callers typically use this to kick off translation of the whole
// program by wrapping ast.Build's root node.
func (b *Buffer) PushRoot(task func(e *Buffer)) {
	b.list.PushBack(&command{kind: kindTask, task: task})
}

// PushRootNode seeds the buffer with a node-translate command for the
// program's root AST node.
func (b *Buffer) PushRootNode(node grammar.TranslateNode) {
	b.list.PushBack(&command{kind: kindTranslate, node: node})
}

// --- grammar.Emitter ---

func (b *Buffer) Push(item bytecode.Item) {
	b.insertAfterCursor(&command{kind: kindItem, item: item})
}

// Translate runs node's translator right away at the cursor, so the
// scope, loop-bound and function-floor state its caller set up around
// the call is still in effect while the child emits.
func (b *Buffer) Translate(node grammar.TranslateNode) {
	translateNode(b, node)
}

func (b *Buffer) CreatePositionIndex() int {
	idx := b.nextPosIndex
	b.nextPosIndex++
	return idx
}

func (b *Buffer) RequestPosition(index int) {
	b.insertAfterCursor(&command{kind: kindPositionRequest, posIndex: index})
}

func (b *Buffer) ReplyPosition(index int) {
	b.insertAfterCursor(&command{kind: kindPositionReply, posIndex: index})
}

func (b *Buffer) PushLoopBounds(startIndex, endIndex int) {
	b.loopStack = append(b.loopStack, loopBounds{startIndex: startIndex, endIndex: endIndex, scopeDepth: b.scopeDepth})
}

func (b *Buffer) PopLoopBounds() {
	b.loopStack = b.loopStack[:len(b.loopStack)-1]
}

func (b *Buffer) LoopBounds() (startIndex, endIndex, scopeDepth int, ok bool) {
	if len(b.loopStack) == 0 {
		return 0, 0, 0, false
	}
	top := b.loopStack[len(b.loopStack)-1]
	return top.startIndex, top.endIndex, top.scopeDepth, true
}

// EnterScope and ExitScope track lexical block nesting independently of
// the bytecode items a translator happens to Push. A break/continue's
// unwinding DELBLOCKs go through Push alone, so they never perturb the
// depth later statements in the same enclosing blocks still see.
func (b *Buffer) EnterScope() {
	b.scopeDepth++
}

func (b *Buffer) ExitScope() {
	b.scopeDepth--
}

func (b *Buffer) ScopeDepth() int {
	return b.scopeDepth
}

func (b *Buffer) PushFunctionFloor(depth int) {
	b.funcFloors = append(b.funcFloors, depth)
}

func (b *Buffer) PopFunctionFloor() {
	b.funcFloors = b.funcFloors[:len(b.funcFloors)-1]
}

func (b *Buffer) FunctionFloor() (int, bool) {
	if len(b.funcFloors) == 0 {
		return 0, false
	}
	return b.funcFloors[len(b.funcFloors)-1], true
}

func (b *Buffer) Fail(reason string) {
	if b.failure == nil {
		b.failure = &Error{Reason: reason}
	}
}

// --- generation ---

// Error reports a command-buffer construction failure: a translation
// error recorded via Fail, or an unresolved position index discovered
// during materialization.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("translation error: %s", e.Reason)
}

// Generate runs the three passes described for the command buffer and
// returns the finished, position-resolved bytecode program.
func (b *Buffer) Generate() (bytecode.Program, error) {
	b.expand()
	if b.failure != nil {
		return nil, b.failure
	}

	offsets := b.resolvePositions()

	return b.materialize(offsets)
}

// expand is pass 1: invoke every task/translate command's body at a
// cursor positioned just after it, then erase the original command.
// Bodies insert new commands immediately after the cursor and advance
// it as they go, so newly inserted commands are visited next, before
// any command that followed the original in program order.
func (b *Buffer) expand() {
	el := b.list.Front()
	for el != nil {
		cmd := el.Value.(*command)
		if cmd.kind != kindTask && cmd.kind != kindTranslate {
			el = el.Next()
			continue
		}

		b.cursor = el
		switch cmd.kind {
		case kindTask:
			cmd.task(b)
		case kindTranslate:
			translateNode(b, cmd.node)
		}

		toRemove := el
		el = el.Next()
		b.list.Remove(toRemove)
	}
}

func translateNode(b *Buffer, node grammar.TranslateNode) {
	alt := node.Alternative()
	if alt == nil {
		// A leaf node carries no translator of its own; nothing to emit
		// directly for a bare token reached via Translate.
		return
	}
	translate := alt.Translate
	if translate == nil {
		translate = grammar.DefaultTranslate
	}
	translate(node, b)
}

// resolvePositions is pass 2: walk the buffer once more, assigning
// each command still present a logical bytecode offset, recording
// where every position-reply resolves to, and erasing the replies.
func (b *Buffer) resolvePositions() map[int]int {
	offsets := make(map[int]int)
	offset := 0

	var next *list.Element
	for el := b.list.Front(); el != nil; el = next {
		next = el.Next()
		cmd := el.Value.(*command)
		if cmd.kind == kindPositionReply {
			offsets[cmd.posIndex] = offset
			b.list.Remove(el)
			continue
		}
		offset++
	}

	return offsets
}

// materialize is pass 3: emit every remaining command as a final
// bytecode item, resolving position-requests to their recorded address.
func (b *Buffer) materialize(offsets map[int]int) (bytecode.Program, error) {
	var program bytecode.Program
	for el := b.list.Front(); el != nil; el = el.Next() {
		cmd := el.Value.(*command)
		switch cmd.kind {
		case kindPositionRequest:
			addr, ok := offsets[cmd.posIndex]
			if !ok {
				return nil, &Error{Reason: fmt.Sprintf("position index %d never resolved", cmd.posIndex)}
			}
			program = append(program, bytecode.Addr(addr))
		case kindItem:
			program = append(program, cmd.item)
		default:
			return nil, &Error{Reason: "unexpected unexpanded command survived to materialization"}
		}
	}
	return program, nil
}

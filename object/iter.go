package object

import (
	"context"
	"math"
	"math/rand"
	"reflect"
	"sort"
	"strings"

	"github.com/scaffold-io/scaffold/op"
)

// Iterator yields the entries of a sequence. An Iterator is single-pass.
type Iterator interface {
	Next(ctx context.Context) (key, value any, ok bool, err error)
}

// Iterable is implemented by values that produce a fresh Iterator each time
// they are iterated.
type Iterable interface {
	Iter() Iterator
}

// Lengther is implemented by iterables that know their length without
// being iterated.
type Lengther interface {
	Len() int
}

// IsIterable reports whether a value can be iterated by a for loop.
func IsIterable(v any) bool {
	switch v.(type) {
	case nil, string:
		return false
	case []any, *Map, Iterable, Iterator:
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return true
	}
	return false
}

// Len returns the number of entries of a keyed container or iterable with a
// known length.
func Len(v any) (int, bool) {
	switch v := v.(type) {
	case nil:
		return 0, false
	case []any:
		return len(v), true
	case *Map:
		return v.Len(), true
	case Lengther:
		return v.Len(), true
	case string:
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

// Iter returns an iterator over v along with its length, or -1 when the
// length is not known up front. Values that are not iterable, strings
// included, produce an empty iterator.
func Iter(v any) (Iterator, int) {
	switch v := v.(type) {
	case nil, string:
		return &listIter{}, 0
	case []any:
		return &listIter{items: v}, len(v)
	case *Map:
		return &mapIter{m: v, keys: v.Keys()}, v.Len()
	case Iterable:
		n := -1
		if l, ok := v.(Lengther); ok {
			n = l.Len()
		}
		return v.Iter(), n
	case Iterator:
		return v, -1
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return &listIter{items: toList(rv)}, rv.Len()
	case reflect.Map:
		return newGoMapIter(rv), rv.Len()
	case reflect.Chan:
		return &chanIter{ch: rv}, -1
	}
	return &listIter{}, 0
}

// Collect drains an iterator into its keys and values.
func Collect(ctx context.Context, it Iterator) ([]any, []any, error) {
	var keys, values []any
	for {
		k, v, ok, err := it.Next(ctx)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return keys, values, nil
		}
		keys = append(keys, k)
		values = append(values, v)
	}
}

type listIter struct {
	items []any
	pos   int
}

func (it *listIter) Next(ctx context.Context) (any, any, bool, error) {
	if it.pos >= len(it.items) {
		return nil, nil, false, nil
	}
	i := it.pos
	it.pos++
	return int64(i), it.items[i], true, nil
}

type mapIter struct {
	m    *Map
	keys []string
	pos  int
}

func (it *mapIter) Next(ctx context.Context) (any, any, bool, error) {
	for it.pos < len(it.keys) {
		k := it.keys[it.pos]
		it.pos++
		if v, ok := it.m.Get(k); ok {
			return k, v, true, nil
		}
	}
	return nil, nil, false, nil
}

type goMapIter struct {
	m    reflect.Value
	keys []reflect.Value
	pos  int
}

// newGoMapIter iterates a Go map in sorted key order so output is
// deterministic.
func newGoMapIter(rv reflect.Value) *goMapIter {
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i].Interface(), keys[j].Interface()
		na, aNum := numberOf(a)
		nb, bNum := numberOf(b)
		if aNum && bNum {
			return compareNumbers(na, nb) < 0
		}
		return strings.Compare(ToString(a), ToString(b)) < 0
	})
	return &goMapIter{m: rv, keys: keys}
}

func (it *goMapIter) Next(ctx context.Context) (any, any, bool, error) {
	if it.pos >= len(it.keys) {
		return nil, nil, false, nil
	}
	k := it.keys[it.pos]
	it.pos++
	return k.Interface(), it.m.MapIndex(k).Interface(), true, nil
}

type chanIter struct {
	ch  reflect.Value
	pos int64
}

func (it *chanIter) Next(ctx context.Context) (any, any, bool, error) {
	cases := []reflect.SelectCase{
		{Dir: reflect.SelectRecv, Chan: it.ch},
		{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())},
	}
	chosen, value, ok := reflect.Select(cases)
	if chosen == 1 {
		return nil, nil, false, ctx.Err()
	}
	if !ok {
		return nil, nil, false, nil
	}
	i := it.pos
	it.pos++
	return i, value.Interface(), true, nil
}

// LoopContext wraps the sequence of a for loop and exposes the loop
// position to templates as the "loop" variable. It streams the sequence:
// when the length is not known up front, "length" is nil and "last" is
// found by looking one entry ahead.
type LoopContext struct {
	ctx    context.Context
	iter   Iterator
	length int
	parent any
	pos    int

	peeked    bool
	peekKey   any
	peekValue any
	peekOK    bool
	peekErr   error
}

// NewLoopContext creates a loop context over seq. The parent is the loop
// context of the enclosing loop, if any.
func NewLoopContext(ctx context.Context, seq any, parent any) *LoopContext {
	if ctx == nil {
		ctx = context.Background()
	}
	it, n := Iter(seq)
	return &LoopContext{ctx: ctx, iter: it, length: n, parent: parent, pos: -1}
}

func (l *LoopContext) peek() {
	if l.peeked {
		return
	}
	l.peekKey, l.peekValue, l.peekOK, l.peekErr = l.iter.Next(l.ctx)
	l.peeked = true
}

// Empty reports whether the sequence has no entries.
func (l *LoopContext) Empty() (bool, error) {
	if l.length >= 0 {
		return l.length == 0, nil
	}
	if l.pos >= 0 {
		return false, nil
	}
	l.peek()
	return !l.peekOK, l.peekErr
}

// Next advances to the next entry.
func (l *LoopContext) Next() (key, value any, ok bool, err error) {
	if l.peeked {
		l.peeked = false
		key, value, ok, err = l.peekKey, l.peekValue, l.peekOK, l.peekErr
		l.peekKey, l.peekValue = nil, nil
	} else {
		key, value, ok, err = l.iter.Next(l.ctx)
	}
	if ok && err == nil {
		l.pos++
	}
	return key, value, ok, err
}

// Index returns the 1-based position of the current entry.
func (l *LoopContext) Index() int64 {
	return int64(l.pos + 1)
}

// First reports whether the current entry is the first.
func (l *LoopContext) First() bool {
	return l.pos == 0
}

// Last reports whether the current entry is the last.
func (l *LoopContext) Last() bool {
	if l.pos < 0 {
		return false
	}
	if l.length >= 0 {
		return l.pos+1 == l.length
	}
	l.peek()
	return !l.peekOK && l.peekErr == nil
}

// Length returns the length of the sequence, or nil when unknown.
func (l *LoopContext) Length() any {
	if l.length < 0 {
		return nil
	}
	return int64(l.length)
}

// Parent returns the loop context of the enclosing loop.
func (l *LoopContext) Parent() any {
	return l.parent
}

// GetAttr implements Getter.
func (l *LoopContext) GetAttr(name string) (any, bool) {
	switch name {
	case "index", "count":
		return l.Index(), true
	case "index0":
		return int64(l.pos), true
	case "first":
		return l.First(), true
	case "last":
		return l.Last(), true
	case "length":
		return l.Length(), true
	case "parent":
		return l.parent, true
	}
	return nil, false
}

// Range is an inclusive numeric sequence from Lower to Upper moving by
// Step. Step must move from Lower towards Upper.
type Range struct {
	Lower any
	Upper any
	Step  any
}

// NewRange creates a range. The direction of step is adjusted to move from
// lower towards upper.
func NewRange(lower, upper, step any) (*Range, error) {
	lo, err := ToNumber(lower)
	if err != nil {
		return nil, err
	}
	hi, err := ToNumber(upper)
	if err != nil {
		return nil, err
	}
	st, err := ToNumber(step)
	if err != nil {
		return nil, err
	}
	if toFloat(st) == 0 {
		return nil, typeErrorf("range step must not be zero")
	}
	if (compareNumbers(hi, lo) < 0) != (toFloat(st) < 0) {
		st, _ = Negate(st)
	}
	return &Range{Lower: lo, Upper: hi, Step: st}, nil
}

// Len returns the number of values in the range.
func (r *Range) Len() int {
	span := math.Abs(toFloat(r.Upper) - toFloat(r.Lower))
	return int(math.Floor(span/math.Abs(toFloat(r.Step)))) + 1
}

// Includes reports whether n lies within the bounds of the range.
func (r *Range) Includes(n any) bool {
	x, err := ToNumber(n)
	if err != nil {
		return false
	}
	if compareNumbers(r.Upper, r.Lower) >= 0 {
		return compareNumbers(x, r.Lower) >= 0 && compareNumbers(x, r.Upper) <= 0
	}
	return compareNumbers(x, r.Lower) <= 0 && compareNumbers(x, r.Upper) >= 0
}

// Iter implements Iterable. Keys are the values themselves.
func (r *Range) Iter() Iterator {
	return &rangeIter{r: r, current: r.Lower}
}

type rangeIter struct {
	r       *Range
	current any
}

func (it *rangeIter) Next(ctx context.Context) (any, any, bool, error) {
	if !it.r.Includes(it.current) {
		return nil, nil, false, nil
	}
	v := it.current
	next, err := BinaryOp(op.Add, it.current, it.r.Step)
	if err != nil {
		return nil, nil, false, err
	}
	it.current = next
	return v, v, true, nil
}

// Cycler steps through a fixed list of elements, wrapping around at the end.
type Cycler struct {
	elements []any
	idx      int
}

// NewCycler creates a cycler over the given elements.
func NewCycler(elements []any) *Cycler {
	return &Cycler{elements: elements}
}

// Next returns the next element, wrapping around.
func (c *Cycler) Next() any {
	if len(c.elements) == 0 {
		return nil
	}
	v := c.elements[c.idx%len(c.elements)]
	c.idx++
	return v
}

// Random returns a random element. An optional seed makes the choice
// repeatable.
func (c *Cycler) Random(seed ...int64) any {
	if len(c.elements) == 0 {
		return nil
	}
	if len(seed) > 0 {
		return c.elements[rand.New(rand.NewSource(seed[0])).Intn(len(c.elements))]
	}
	return c.elements[rand.Intn(len(c.elements))]
}

// Count returns how many elements Next has returned.
func (c *Cycler) Count() int64 {
	return int64(c.idx)
}

// Cycle returns the number of started passes over the elements.
func (c *Cycler) Cycle() int64 {
	if len(c.elements) == 0 {
		return 0
	}
	return int64(math.Ceil(float64(c.idx) / float64(len(c.elements))))
}

// Len implements Lengther.
func (c *Cycler) Len() int {
	return len(c.elements)
}

// Iter implements Iterable.
func (c *Cycler) Iter() Iterator {
	return &listIter{items: c.elements}
}

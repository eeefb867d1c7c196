package registry

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/mgmtgrid/internal/descriptor"
	"github.com/vk/mgmtgrid/internal/invoker"
	"github.com/vk/mgmtgrid/internal/namehash"
)

type thermo struct{ temp float64 }

func (t *thermo) Temp() float64 { return t.temp }
func (t *thermo) Reset() { t.temp = 20 }
func (t *thermo) Boost(by int) float64 { t.temp += float64(by); return t.temp }

type counters struct{ hits, misses int }

func (c *counters) Hits() int { return c.hits }
func (c *counters) Misses() int { return c.misses }

type store struct {
	items map[string]string
	limit int
	stats *counters
}

func newStore() *store {
	return &store{items: map[string]string{}, limit: 10, stats: &counters{}}
}

func (s *store) Size() int { return len(s.items) }
func (s *store) Limit() int { return s.limit }
func (s *store) SetLimit(n int) { s.limit = n }
func (s *store) Stats() *counters { return s.stats }
func (s *store) Put(key, value string) { s.items[key] = value }
func (s *store) Clear() { clear(s.items) }

// factory hands out a fresh object on every read.
type factory struct{ made int }

func (f *factory) Fresh() *counters {
	f.made++
	return &counters{hits: f.made}
}

type broken struct{ v int }

func (b *broken) V() int { return b.v }

type shadow struct{ v int }

func (s *shadow) V() int { return s.v }

type clock struct{ ticks int }

func (c *clock) Ticks() int { return c.ticks }

func testCatalog(fallback descriptor.Source) *descriptor.Catalog {
	c := descriptor.NewCatalog(fallback)
	descriptor.MustRegister(c, descriptor.TypeDef[*thermo]{
		Attributes: []descriptor.AttributeSpec{
			{Name: "temp", Getter: invoker.Getter("Temp", (*thermo).Temp)},
		},
		Operations: []descriptor.OperationSpec{
			{Name: "reset", Method: invoker.Proc0("Reset", (*thermo).Reset)},
			{Name: "boost", Method: invoker.Func1("Boost", (*thermo).Boost)},
		},
	})
	descriptor.MustRegister(c, descriptor.TypeDef[*counters]{
		Attributes: []descriptor.AttributeSpec{
			{Name: "hits", Getter: invoker.Getter("Hits", (*counters).Hits)},
			{Name: "misses", Getter: invoker.Getter("Misses", (*counters).Misses)},
		},
	})
	descriptor.MustRegister(c, descriptor.TypeDef[*store]{
		Attributes: []descriptor.AttributeSpec{
			{Name: "size", Getter: invoker.Getter("Size", (*store).Size)},
			{Name: "limit", Getter: invoker.Getter("Limit", (*store).Limit), Setter: invoker.Setter("SetLimit", (*store).SetLimit)},
			{Name: "stats", Getter: invoker.Getter("Stats", (*store).Stats), Poppable: true},
		},
		Operations: []descriptor.OperationSpec{
			{Name: "put", Method: invoker.Proc2("Put", (*store).Put)},
			{Name: "clear", Method: invoker.Proc0("Clear", (*store).Clear)},
		},
	})
	descriptor.MustRegister(c, descriptor.TypeDef[*factory]{
		Attributes: []descriptor.AttributeSpec{
			{Name: "fresh", Getter: invoker.Getter("Fresh", (*factory).Fresh), Poppable: true},
		},
	})
	descriptor.MustRegister(c, descriptor.TypeDef[*broken]{
		Attributes: []descriptor.AttributeSpec{
			{Name: "v", Getter: invoker.Getter("V", (*broken).V)},
			{Name: "bad", Getter: invoker.Getter("Bad", (func(*broken) int)(nil))},
		},
		Operations: []descriptor.OperationSpec{
			{Name: "gone", Method: invoker.Proc0("Gone", (func(*broken))(nil))},
		},
	})
	descriptor.MustRegister(c, descriptor.TypeDef[*clock]{
		Attributes: []descriptor.AttributeSpec{
			{Name: "cache.clear()", Getter: invoker.Getter("Ticks", (*clock).Ticks)},
		},
	})
	descriptor.MustRegister(c, descriptor.TypeDef[*shadow]{
		Attributes: []descriptor.AttributeSpec{
			{Name: "cache.size", Getter: invoker.Getter("V", (*shadow).V)},
		},
	})
	return c
}

func newTestRegistry(t *testing.T, mutate ...func(*Options)) *Registry {
	t.Helper()
	opts := DefaultOptions()
	opts.OwnerID = "root"
	opts.Source = testCatalog(descriptor.Reflective{})
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, m := range mutate {
		m(&opts)
	}
	return New(opts)
}

func keySet(r *Registry) []string {
	return append(r.AttributeNames(), r.OperationKeys()...)
}

func TestRegistry_TemperatureScenario(t *testing.T) {
	r := newTestRegistry(t)
	th := &thermo{temp: 36.6}
	_, err := r.Put(th)
	require.NoError(t, err)

	getter, err := r.Getter("temp")
	require.NoError(t, err)
	v, err := getter.Invoke()
	require.NoError(t, err)
	assert.Equal(t, 36.6, v)

	_, err = r.Setter("temp")
	require.ErrorIs(t, err, ErrAttributeNotWritable)

	reset, err := r.Operation("reset", "()")
	require.NoError(t, err)
	_, err = reset.Invoke()
	require.NoError(t, err)

	v, err = getter.Invoke()
	require.NoError(t, err)
	assert.Equal(t, 20.0, v)
}

func TestRegistry_PrefixedSubObjectScenario(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Put(&thermo{})
	require.NoError(t, err)

	s := newStore()
	s.Put("k", "v")
	d, err := r.PutNamed(s, "cache.")
	require.NoError(t, err)
	require.NotNil(t, d)
	_, ok := d.Attribute("cache.size")
	assert.True(t, ok)

	size, err := r.Get("cache.size")
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	_, err = r.Getter("size")
	require.ErrorIs(t, err, ErrAttributeNotFound)
}

func TestRegistry_MergeDescriptors(t *testing.T) {
	r := newTestRegistry(t)
	rootDesc, err := r.Put(&thermo{})
	require.NoError(t, err)
	a, err := r.PutNamed(newStore(), "b.")
	require.NoError(t, err)
	b, err := r.PutNamed(newStore(), "a.")
	require.NoError(t, err)

	merged := r.MergeDescriptors()
	assert.Equal(t, "root", merged.Type)
	assert.Len(t, merged.Attributes, len(rootDesc.Attributes)+len(a.Attributes)+len(b.Attributes))
	assert.Len(t, merged.Operations, len(rootDesc.Operations)+len(a.Operations)+len(b.Operations))

	// Root first, then sub-objects by name.
	assert.Equal(t, "temp", merged.Attributes[0].Name)
	assert.Equal(t, "a.size", merged.Attributes[1].Name)
	assert.Equal(t, "b.size", merged.Attributes[4].Name)

	// Putting the root again does not duplicate it.
	_, err = r.Put(r.Objects()[0].Target())
	require.NoError(t, err)
	assert.Len(t, r.MergeDescriptors().Attributes, len(merged.Attributes))
}

func TestRegistry_IdempotentRemoval(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Put(&thermo{})
	require.NoError(t, err)
	s := newStore()
	_, err = r.PutNamed(s, "cache.")
	require.NoError(t, err)

	o, ok := r.Remove("cache.")
	require.True(t, ok)
	assert.Equal(t, "cache.", o.Name())
	assert.Nil(t, o.Target())

	o, ok = r.Remove("cache.")
	assert.False(t, ok)
	assert.Nil(t, o)
	_, ok = r.RemoveTarget(s)
	assert.False(t, ok)

	assert.Equal(t, []string{"temp"}, r.AttributeNames())
	assert.Equal(t, []string{"boost(int)", "reset()"}, r.OperationKeys())
	require.NoError(t, r.Verify())

	o, ok = r.RemoveTarget(r.Objects()[0].Target())
	require.True(t, ok)
	assert.True(t, o.IsRoot())
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, keySet(r))
}

func TestRegistry_PrefixCollisionSafety(t *testing.T) {
	r := newTestRegistry(t)
	a, b := newStore(), newStore()
	a.SetLimit(1)
	b.SetLimit(2)
	_, err := r.PutNamed(a, "A")
	require.NoError(t, err)
	_, err = r.PutNamed(b, "B")
	require.NoError(t, err)

	assert.NotEqual(t, namehash.Of("Alimit"), namehash.Of("Blimit"))

	va, err := r.Get("Alimit")
	require.NoError(t, err)
	vb, err := r.Get("Blimit")
	require.NoError(t, err)
	assert.Equal(t, 1, va)
	assert.Equal(t, 2, vb)

	require.NoError(t, r.Set("Blimit", 7))
	assert.Equal(t, 1, a.limit)
	assert.Equal(t, 7, b.limit)
}

func TestRegistry_CompileOnce(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.PutNamed(newStore(), "a.")
	require.NoError(t, err)
	compiled := r.Compiler().Compilations()

	_, err = r.PutNamed(newStore(), "b.")
	require.NoError(t, err)
	assert.Equal(t, compiled, r.Compiler().Compilations(), "second instance must reuse every template")

	ga, err := r.Getter("a.size")
	require.NoError(t, err)
	gb, err := r.Getter("b.size")
	require.NoError(t, err)
	require.Same(t, ga.Template(), gb.Template())
	assert.NotSame(t, ga.Target(), gb.Target())
}

func TestRegistry_SharedCompilerAcrossRegistries(t *testing.T) {
	compiler := invoker.NewCompiler(nil)
	share := func(o *Options) { o.Compiler = compiler }
	r1 := newTestRegistry(t, share)
	r2 := newTestRegistry(t, share)

	_, err := r1.Put(&thermo{})
	require.NoError(t, err)
	_, err = r2.Put(&thermo{})
	require.NoError(t, err)

	g1, err := r1.Getter("temp")
	require.NoError(t, err)
	g2, err := r2.Getter("temp")
	require.NoError(t, err)
	require.Same(t, g1.Template(), g2.Template())
}

func TestRegistry_PopUnpopRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	s := newStore()
	s.stats.hits = 3
	_, err := r.Put(s)
	require.NoError(t, err)
	before := keySet(r)

	state, ok := r.SlotState("stats")
	require.True(t, ok)
	assert.Equal(t, Registered, state)

	d, err := r.Pop("stats")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Len(t, d.Attributes, 2)

	hits, err := r.Get("stats.hits")
	require.NoError(t, err)
	assert.Equal(t, 3, hits)

	state, _ = r.SlotState("stats")
	assert.Equal(t, Popped, state)

	again, err := r.Pop("stats")
	require.NoError(t, err)
	assert.Nil(t, again, "a popped slot is not popped twice")

	removed, err := r.Unpop("stats")
	require.NoError(t, err)
	assert.True(t, removed)

	if diff := cmp.Diff(before, keySet(r)); diff != "" {
		t.Errorf("key set changed after pop/unpop (-before +after):\n%s", diff)
	}
	state, _ = r.SlotState("stats")
	assert.Equal(t, Registered, state)

	removed, err = r.Unpop("stats")
	require.NoError(t, err)
	assert.False(t, removed)
	require.NoError(t, r.Verify())
}

func TestRegistry_PopNoOps(t *testing.T) {
	r := newTestRegistry(t)
	s := newStore()
	s.stats = nil
	_, err := r.Put(s)
	require.NoError(t, err)

	testCases := []struct {
		name string
		attr string
	}{
		{name: "absent attribute", attr: "missing"},
		{name: "not poppable", attr: "size"},
		{name: "getter returns nil", attr: "stats"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := r.Pop(tc.attr)
			require.NoError(t, err)
			assert.Nil(t, d)
		})
	}
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_PopSeparator(t *testing.T) {
	testCases := []struct {
		name      string
		separator *string
		object    string
		attribute string
	}{
		{name: "default", object: "stats.", attribute: "stats.hits"},
		{name: "custom", separator: ptr("/"), object: "stats/", attribute: "stats/hits"},
		{name: "empty", separator: ptr(""), object: "stats", attribute: "statshits"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRegistry(t, func(o *Options) { o.PopSeparator = tc.separator })
			assert.Equal(t, tc.object, "stats"+r.PopSeparator())

			s := newStore()
			s.stats.hits = 5
			_, err := r.Put(s)
			require.NoError(t, err)
			_, err = r.Pop("stats")
			require.NoError(t, err)

			_, ok := r.Lookup(tc.object)
			assert.True(t, ok)
			hits, err := r.Get(tc.attribute)
			require.NoError(t, err)
			assert.Equal(t, 5, hits)

			removed, err := r.Unpop("stats")
			require.NoError(t, err)
			assert.True(t, removed)
			require.NoError(t, r.Verify())
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestRegistry_PopAllAndUnpopAll(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Put(newStore())
	require.NoError(t, err)
	_, err = r.PutNamed(newStore(), "second.")
	require.NoError(t, err)

	ds, err := r.PopAll()
	require.NoError(t, err)
	assert.Len(t, ds, 2)
	assert.Equal(t, 4, r.Len())

	_, err = r.Get("second.stats.hits")
	require.NoError(t, err)

	ds, err = r.PopAll()
	require.NoError(t, err)
	assert.Empty(t, ds)

	n, err := r.UnpopAll()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, r.Len())
	require.NoError(t, r.Verify())
}

func TestRegistry_UnpopFallsBackToRecordedObject(t *testing.T) {
	r := newTestRegistry(t)
	f := &factory{}
	_, err := r.Put(f)
	require.NoError(t, err)

	_, err = r.Pop("fresh")
	require.NoError(t, err)
	hits, err := r.Get("fresh.hits")
	require.NoError(t, err)
	assert.Equal(t, 1, hits)

	// The getter now returns a different object than the one popped.
	removed, err := r.Unpop("fresh")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 1, r.Len())
	_, err = r.Getter("fresh.hits")
	require.ErrorIs(t, err, ErrAttributeNotFound)
}

func TestRegistry_RemoveCascadesToPoppedObjects(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Put(&thermo{})
	require.NoError(t, err)
	_, err = r.PutNamed(newStore(), "cache.")
	require.NoError(t, err)
	_, err = r.Pop("cache.stats")
	require.NoError(t, err)
	_, ok := r.Lookup("cache.stats.")
	require.True(t, ok)

	_, ok = r.Remove("cache.")
	require.True(t, ok)
	_, ok = r.Lookup("cache.stats.")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
	require.NoError(t, r.Verify())
}

func TestRegistry_RemovingPoppedObjectResetsSlot(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Put(newStore())
	require.NoError(t, err)
	_, err = r.Pop("stats")
	require.NoError(t, err)

	_, ok := r.Remove("stats.")
	require.True(t, ok)
	state, _ := r.SlotState("stats")
	assert.Equal(t, Registered, state)

	d, err := r.Pop("stats")
	require.NoError(t, err)
	assert.NotNil(t, d)
}

func TestRegistry_PutDuplicates(t *testing.T) {
	r := newTestRegistry(t)
	th := &thermo{}
	first, err := r.Put(th)
	require.NoError(t, err)
	second, err := r.Put(th)
	require.NoError(t, err)
	assert.Same(t, first, second)

	s := newStore()
	d, err := r.PutNamed(s, "cache.")
	require.NoError(t, err)
	require.NotNil(t, d)
	d, err = r.PutNamed(s, "other.")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = r.PutNamed(newStore(), "cache.")
	require.ErrorIs(t, err, ErrNameInUse)
	_, err = r.Put(&thermo{})
	require.ErrorIs(t, err, ErrNameInUse)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_ExtractionFailures(t *testing.T) {
	r := newTestRegistry(t, func(o *Options) { o.Source = testCatalog(nil) })

	testCases := []struct {
		name   string
		target any
	}{
		{name: "nil", target: nil},
		{name: "typed nil pointer", target: (*thermo)(nil)},
		{name: "value without identity", target: thermo{}},
		{name: "unknown type", target: &struct{ n int }{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Put(tc.target)
			require.ErrorIs(t, err, ErrExtraction)
		})
	}
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, keySet(r))
}

func TestRegistry_UncompilableMethodsAreSkipped(t *testing.T) {
	r := newTestRegistry(t)
	d, err := r.Put(&broken{v: 5})
	require.NoError(t, err)
	require.Len(t, d.Attributes, 1)
	assert.Empty(t, d.Operations)

	o, ok := r.Lookup("")
	require.True(t, ok)
	assert.Equal(t, []string{"bad", "gone()"}, o.Skipped())

	v, err := r.Get("v")
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	_, err = r.Getter("bad")
	require.ErrorIs(t, err, ErrAttributeNotFound)
}

func TestRegistry_NameCollision(t *testing.T) {
	t.Run("checked", func(t *testing.T) {
		r := newTestRegistry(t)
		_, err := r.Put(&shadow{v: 100})
		require.NoError(t, err)
		_, err = r.PutNamed(newStore(), "cache.")
		require.ErrorIs(t, err, ErrNameCollision)
		assert.Equal(t, 1, r.Len())
		require.NoError(t, r.Verify())
	})

	t.Run("last writer wins", func(t *testing.T) {
		r := newTestRegistry(t, func(o *Options) { o.CollisionCheck = false })
		_, err := r.Put(&shadow{v: 100})
		require.NoError(t, err)
		s := newStore()
		s.Put("a", "b")
		_, err = r.PutNamed(s, "cache.")
		require.NoError(t, err)

		v, err := r.Get("cache.size")
		require.NoError(t, err)
		assert.Equal(t, 1, v)
		require.ErrorIs(t, r.Verify(), ErrInconsistent)

		// Removing the root must not take the overwritten key with it.
		_, ok := r.Remove("")
		require.True(t, ok)
		v, err = r.Get("cache.size")
		require.NoError(t, err)
		assert.Equal(t, 1, v)
		require.NoError(t, r.Verify())
	})
}

func TestRegistry_AttributeAndOperationKeysDoNotCollide(t *testing.T) {
	for _, checked := range []bool{true, false} {
		t.Run(fmt.Sprintf("collision check %v", checked), func(t *testing.T) {
			r := newTestRegistry(t, func(o *Options) { o.CollisionCheck = checked })
			_, err := r.Put(&clock{ticks: 7})
			require.NoError(t, err)
			s := newStore()
			s.Put("k", "v")
			_, err = r.PutNamed(s, "cache.")
			require.NoError(t, err)

			v, err := r.Get("cache.clear()")
			require.NoError(t, err)
			assert.Equal(t, 7, v)
			_, err = r.Invoke("cache.clear", "()")
			require.NoError(t, err)
			assert.Empty(t, s.items)
			require.NoError(t, r.Verify())
		})
	}
}

func TestRegistry_DispatchErrors(t *testing.T) {
	r := newTestRegistry(t)
	s := newStore()
	_, err := r.Put(s)
	require.NoError(t, err)

	require.NoError(t, r.Set("limit", "12"))
	assert.Equal(t, 12, s.limit)

	err = r.Set("limit", "twelve")
	var invErr *invoker.InvocationError
	require.True(t, errors.As(err, &invErr))
	require.ErrorIs(t, err, invoker.ErrArgumentType)

	_, err = r.Invoke("put", "(string, string)", "k", "v")
	require.NoError(t, err)
	assert.Equal(t, "v", s.items["k"])

	_, err = r.Invoke("put", "(string)", "k")
	require.ErrorIs(t, err, ErrOperationNotFound)
	_, err = r.Invoke("clear", "")
	require.NoError(t, err)
	assert.Empty(t, s.items)

	_, err = r.Get("nope")
	require.ErrorIs(t, err, ErrAttributeNotFound)
	require.ErrorIs(t, r.Set("size", 1), ErrAttributeNotWritable)
}

func TestRegistry_ReflectiveFallback(t *testing.T) {
	r := newTestRegistry(t)
	p := &valve{value: 4}
	_, err := r.PutNamed(p, "valve.")
	require.NoError(t, err)

	v, err := r.Get("valve.value")
	require.NoError(t, err)
	assert.Equal(t, 4, v)
	require.NoError(t, r.Set("valve.value", 9))

	out, err := r.Invoke("valve.double", "()")
	require.NoError(t, err)
	assert.Equal(t, 18, out)
}

type valve struct{ value int }

func (p *valve) GetValue() int { return p.value }
func (p *valve) SetValue(v int) { p.value = v }
func (p *valve) Double() int { return p.value * 2 }

func TestRegistry_Clear(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Put(newStore())
	require.NoError(t, err)
	_, err = r.PutNamed(newStore(), "x.")
	require.NoError(t, err)
	_, err = r.PopAll()
	require.NoError(t, err)

	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, keySet(r))
	assert.Empty(t, r.MergeDescriptors().Attributes)

	_, err = r.Put(&thermo{})
	require.NoError(t, err)
	assert.Equal(t, []string{"temp"}, r.AttributeNames())
}

func TestObject_TargetWhileRemoving(t *testing.T) {
	r := newTestRegistry(t)
	th := &thermo{temp: 1}
	_, err := r.PutNamed(th, "t.")
	require.NoError(t, err)
	o, ok := r.Lookup("t.")
	require.True(t, ok)
	require.Same(t, th, o.Target())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if v := o.Target(); v != nil {
				assert.Same(t, th, v)
			}
		}
	}()
	go func() {
		defer wg.Done()
		r.Remove("t.")
	}()
	wg.Wait()

	assert.Nil(t, o.Target())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := newTestRegistry(t)
	numGoroutines := 32
	var wg sync.WaitGroup

	shared := newStore()
	wg.Add(numGoroutines * 2)
	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			if _, err := r.PutNamed(newStore(), fmt.Sprintf("s%d.", i)); err != nil {
				t.Errorf("put s%d.: %v", i, err)
			}
			if _, err := r.PutNamed(shared, "shared."); err != nil {
				t.Errorf("put shared: %v", err)
			}
		}(i)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				v, err := r.Get(fmt.Sprintf("s%d.limit", i))
				if err == nil {
					assert.Equal(t, 10, v)
				} else {
					assert.ErrorIs(t, err, ErrAttributeNotFound)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, numGoroutines+1, r.Len())
	require.NoError(t, r.Verify())

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("s%d.", i)
			if _, err := r.Pop(name + "stats"); err != nil {
				t.Errorf("pop %s: %v", name, err)
			}
			r.Remove(name)
			r.Remove(name)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, r.Len())
	require.NoError(t, r.Verify())
}

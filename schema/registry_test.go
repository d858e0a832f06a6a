package schema

import (
	stderrors "errors"
	"sync"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-rpcclient/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getBalance() catalog.Method {
	return catalog.Method{
		Name: "getBalance",
		Params: []catalog.Param{
			{Name: "address", Required: true, Schema: map[string]any{"type": "string", "pattern": "^0x[0-9A-F]+$"}},
			{Name: "blockTag", Required: true, Schema: map[string]any{"type": "string"}},
		},
	}
}

func textCode(t *testing.T, err error) string {
	t.Helper()
	var ge *goerrors.Error
	require.True(t, stderrors.As(err, &ge), "expected go-errors error, got %T", err)
	return ge.TextCode
}

func TestNewIDIsStable(t *testing.T) {
	assert.Equal(t, NewID("getBalance", 0, "address"), NewID("getBalance", 0, "address"))
	assert.Equal(t, ID("getBalance/0/address"), NewID("getBalance", 0, "address"))
}

func TestNewIDDoesNotCollide(t *testing.T) {
	ids := []ID{
		NewID("a/b", 0, "c"),
		NewID("a", 0, "b/c"),
		NewID("a", 1, "b"),
		NewID("a", 0, "b"),
		NewID("a/0", 0, "b"),
	}
	seen := map[ID]bool{}
	for _, id := range ids {
		assert.False(t, seen[id], "collision on %q", id)
		seen[id] = true
	}
}

func TestIDParseRoundTrip(t *testing.T) {
	method, index, param, err := NewID("ns/method", 3, "weird name").Parse()
	require.NoError(t, err)
	assert.Equal(t, "ns/method", method)
	assert.Equal(t, 3, index)
	assert.Equal(t, "weird name", param)

	_, _, _, err = ID("nope").Parse()
	require.Error(t, err)
}

func TestRegistryCheck(t *testing.T) {
	m := getBalance()
	r := NewRegistry(nil)
	require.NoError(t, r.Register(m, 0))
	require.NoError(t, r.Register(m, 1))
	assert.Equal(t, 2, r.Len())
	assert.True(t, r.Has(ParamID(m, 0)))

	ok, diags, err := r.Check(m, 0, "0xAB12")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, diags)

	ok, diags, err = r.Check(m, 0, "0xabc")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NotEmpty(t, diags)

	ok, _, err = r.Check(m, 1, 42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistryCheckIsIdempotent(t *testing.T) {
	m := getBalance()
	r := NewRegistry(nil)
	require.NoError(t, r.Register(m, 0))

	first, _, err := r.Check(m, 0, "0xabc")
	require.NoError(t, err)
	second, _, err := r.Check(m, 0, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	first, _, _ = r.Check(m, 0, "0xFF")
	second, _, _ = r.Check(m, 0, "0xFF")
	assert.True(t, first)
	assert.Equal(t, first, second)
}

func TestRegistrySchemasAreAttributedPerParam(t *testing.T) {
	shared := map[string]any{"type": "string"}
	a := catalog.Method{Name: "a", Params: []catalog.Param{{Name: "address", Schema: shared}}}
	b := catalog.Method{Name: "b", Params: []catalog.Param{{Name: "address", Schema: map[string]any{"type": "integer"}}}}

	r := NewRegistry(nil)
	require.NoError(t, r.Register(a, 0))
	require.NoError(t, r.Register(b, 0))

	ok, _, err := r.Check(a, 0, "x")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _, err = r.Check(b, 0, "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistryNilSchemaAcceptsAnything(t *testing.T) {
	m := catalog.Method{Name: "m", Params: []catalog.Param{{Name: "any"}}}
	r := NewRegistry(nil)
	require.NoError(t, r.Register(m, 0))

	for _, v := range []any{nil, 1, "s", []any{1}, map[string]any{"k": true}} {
		ok, _, err := r.Check(m, 0, v)
		require.NoError(t, err)
		assert.True(t, ok, "value %v", v)
	}
}

func TestRegistryRejectsMalformedSchema(t *testing.T) {
	m := catalog.Method{Name: "m", Params: []catalog.Param{{Name: "p", Schema: map[string]any{"type": "nonsense"}}}}
	r := NewRegistry(nil)

	err := r.Register(m, 0)
	require.Error(t, err)
	assert.Equal(t, ErrCodeSchemaCompilation, textCode(t, err))
	assert.False(t, r.Has(ParamID(m, 0)))
}

func TestRegistryRejectsDuplicateAndOutOfRange(t *testing.T) {
	m := getBalance()
	r := NewRegistry(nil)
	require.NoError(t, r.Register(m, 0))

	err := r.Register(m, 0)
	require.Error(t, err)
	assert.Equal(t, ErrCodeDuplicateSchema, textCode(t, err))

	err = r.Register(m, 5)
	require.Error(t, err)
	assert.Equal(t, ErrCodeParamIndexOutOfBounds, textCode(t, err))

	_, _, err = r.Check(m, -1, "x")
	require.Error(t, err)
}

func TestRegistryCheckUnregistered(t *testing.T) {
	r := NewRegistry(nil)
	_, _, err := r.Check(getBalance(), 0, "0x1")
	require.Error(t, err)
	assert.Equal(t, ErrCodeSchemaNotFound, textCode(t, err))
}

func TestRegisterCatalogFreezes(t *testing.T) {
	c, err := catalog.New(getBalance(), catalog.Method{Name: "noParams"})
	require.NoError(t, err)

	r := NewRegistry(nil)
	require.NoError(t, r.RegisterCatalog(c))
	assert.Equal(t, 2, r.Len())

	other := catalog.Method{Name: "late", Params: []catalog.Param{{Name: "x"}}}
	err = r.Register(other, 0)
	require.Error(t, err)
	assert.Equal(t, ErrCodeRegistryFrozen, textCode(t, err))
}

func TestRegisterCatalogEthereum(t *testing.T) {
	c := catalog.Ethereum()
	r := NewRegistry(nil)
	require.NoError(t, r.RegisterCatalog(c))

	total := 0
	for _, m := range c.Methods() {
		total += len(m.Params)
	}
	assert.Equal(t, total, r.Len())

	m, _ := c.Lookup("eth_getBalance")
	ok, _, err := r.Check(m, 1, "latest")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _, err = r.Check(m, 1, "0x1b4")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegistryConcurrentChecks(t *testing.T) {
	m := getBalance()
	r := NewRegistry(nil)
	require.NoError(t, r.Register(m, 0))
	r.Freeze()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			value := "0xAB"
			if i%2 == 0 {
				value = "zz"
			}
			ok, _, err := r.Check(m, 0, value)
			assert.NoError(t, err)
			assert.Equal(t, i%2 != 0, ok)
		}(i)
	}
	wg.Wait()
}

type recordingEngine struct {
	compiled []ID
}

func (e *recordingEngine) Compile(id ID, _ any) error {
	e.compiled = append(e.compiled, id)
	return nil
}

func (e *recordingEngine) Test(ID, any) (bool, []Diagnostic, error) {
	return true, nil, nil
}

func TestRegistryUsesInjectedEngine(t *testing.T) {
	engine := &recordingEngine{}
	r := NewRegistry(engine)
	require.NoError(t, r.Register(getBalance(), 1))
	assert.Equal(t, []ID{"getBalance/1/blockTag"}, engine.compiled)
}

func TestDiagnosticString(t *testing.T) {
	assert.Equal(t, "(root): Does not match", Diagnostic{Field: "(root)", Description: "Does not match"}.String())
	assert.Equal(t, "bare", Diagnostic{Description: "bare"}.String())
}

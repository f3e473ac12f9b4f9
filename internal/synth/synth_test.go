package synth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jamesprial/gqlops/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// loadSDL parses sdl or fails the test.
func loadSDL(t *testing.T, sdl string) *ast.Schema {
	t.Helper()
	s, err := schema.LoadSDL("test.graphql", sdl)
	require.NoError(t, err)
	return s
}

// generate runs Generate and fails the test on error.
func generate(t *testing.T, s *ast.Schema, depth int) []string {
	t.Helper()
	ops, err := Generate(s, depth)
	require.NoError(t, err)
	return ops
}

// assertParses checks that every operation is syntactically valid GraphQL.
func assertParses(t *testing.T, ops []string) {
	t.Helper()
	for _, op := range ops {
		_, err := parser.ParseQuery(&ast.Source{Name: "op.graphql", Input: op})
		assert.NoError(t, err, "operation does not parse: %s", op)
	}
}

const chainSDL = `
type Query {
  ping: String
  block(number: Int!, full: Boolean = false): Block
  status: Status
}

type Mutation {
  sendRaw(signedTx: String!): Receipt
}

type Block {
  number: Int!
  parent: Block
  txs: [Receipt!]!
}

type Receipt {
  hash: String
  status: Status
}

enum Status { OK FAILED }
`

// ---------------------------------------------------------------------------
// End-to-end scenarios
// ---------------------------------------------------------------------------

func Test_Generate_PingAtAnyDepth(t *testing.T) {
	s := loadSDL(t, `type Query { ping: String }`)

	for _, depth := range []int{0, 1, 2, 5} {
		t.Run(fmt.Sprintf("depth %d", depth), func(t *testing.T) {
			ops := generate(t, s, depth)
			assert.Equal(t, []string{"query query_ping { ping }"}, ops)
		})
	}
}

func Test_Generate_SendRawMutation(t *testing.T) {
	s := loadSDL(t, `
type Query { ping: String }
type Mutation { sendRaw(signedTx: String!): Receipt }
type Receipt { hash: String }
`)

	ops := generate(t, s, 1)
	require.Len(t, ops, 2)
	assert.Equal(t, "query query_ping { ping }", ops[0])
	assert.Equal(t, "mutation mutation_sendRaw($signedTx: String!) { sendRaw(signedTx: $signedTx) { hash } }", ops[1])
	assertParses(t, ops)
}

func Test_Generate_ChainSchema(t *testing.T) {
	s := loadSDL(t, chainSDL)

	ops := generate(t, s, 1)
	assert.Equal(t, []string{
		"query query_ping { ping }",
		"query query_block($number: Int!) { block(number: $number) { number parent { __typename } txs { hash status } } }",
		"query query_status { status }",
		"mutation mutation_sendRaw($signedTx: String!) { sendRaw(signedTx: $signedTx) { hash status } }",
	}, ops)
	assertParses(t, ops)
}

// ---------------------------------------------------------------------------
// Selection properties
// ---------------------------------------------------------------------------

func Test_Selection_CycleDegeneratesToTypename(t *testing.T) {
	s := loadSDL(t, `
type Query { node: Node }
type Node { id: ID! parent: Node children: [Node!]! }
`)

	for _, depth := range []int{1, 2, 10} {
		sel, ok := Selection(s, s.Query.Fields.ForName("node").Type, depth)
		require.True(t, ok)
		assert.Equal(t, "id parent { __typename } children { __typename }", sel, "depth %d", depth)
	}
}

func Test_Selection_MutualRecursionTerminates(t *testing.T) {
	s := loadSDL(t, `
type Query { a: A }
type A { b: B name: String }
type B { a: A id: ID }
`)

	sel, ok := Selection(s, s.Query.Fields.ForName("a").Type, 5)
	require.True(t, ok)
	assert.Equal(t, "b { a { __typename } id } name", sel)
}

func Test_Selection_SiblingsDoNotShareVisited(t *testing.T) {
	s := loadSDL(t, `
type Query { pair: Pair }
type Pair { left: Leaf right: Leaf }
type Leaf { v: Int }
`)

	sel, ok := Selection(s, s.Query.Fields.ForName("pair").Type, 1)
	require.True(t, ok)
	assert.Equal(t, "left { v } right { v }", sel)
}

func Test_Selection_DepthExhaustedFallsBackToTypename(t *testing.T) {
	s := loadSDL(t, `
type Query { wrapper: Wrapper }
type Wrapper { inner: Inner }
type Inner { x: Int }
`)

	sel, ok := Selection(s, s.Query.Fields.ForName("wrapper").Type, 0)
	require.True(t, ok)
	assert.Equal(t, "__typename", sel)

	ops := generate(t, s, 0)
	assert.Equal(t, []string{"query query_wrapper { wrapper { __typename } }"}, ops)

	sel, ok = Selection(s, s.Query.Fields.ForName("wrapper").Type, 1)
	require.True(t, ok)
	assert.Equal(t, "inner { x }", sel)
}

func Test_Selection_NeverEmptyForObjects(t *testing.T) {
	s := loadSDL(t, chainSDL)

	for name, def := range s.Types {
		if def.Kind != ast.Object || def.BuiltIn || strings.HasPrefix(name, "__") {
			continue
		}
		for depth := 0; depth < 3; depth++ {
			sel, ok := Selection(s, ast.NamedType(name, nil), depth)
			assert.True(t, ok, "%s depth %d", name, depth)
			assert.NotEmpty(t, sel, "%s depth %d", name, depth)
		}
	}
}

func Test_Selection_LeafTypesHaveNoSelection(t *testing.T) {
	s := loadSDL(t, chainSDL)

	for _, typ := range []*ast.Type{
		ast.NamedType("String", nil),
		ast.NonNullNamedType("Int", nil),
		ast.ListType(ast.NamedType("Status", nil), nil),
	} {
		sel, ok := Selection(s, typ, 3)
		assert.False(t, ok, "type %s", typ)
		assert.Empty(t, sel)
	}
}

func Test_Selection_InterfaceRootHasNoBraces(t *testing.T) {
	s := loadSDL(t, `
type Query { node: Node }
interface Node { id: ID! }
`)

	ops := generate(t, s, 1)
	assert.Equal(t, []string{"query query_node { node }"}, ops)
}

// ---------------------------------------------------------------------------
// Operation assembly
// ---------------------------------------------------------------------------

func Test_Operations_RequiredArgumentsOnly(t *testing.T) {
	s := loadSDL(t, `
type Query {
  search(term: String!, limit: Int, offset: Int! = 0, tags: [String!]!, after: ID): [String]
}
`)

	ops, err := Operations(s, 1)
	require.NoError(t, err)
	require.Len(t, ops, 1)

	op := ops[0]
	assert.Equal(t, "query_search", op.Name())
	assert.Equal(t, []string{"$term: String!", "$tags: [String!]!"}, op.Variables)
	assert.Equal(t, []string{"term: $term", "tags: $tags"}, op.Arguments)
	assert.False(t, op.HasSelection)
	assert.Equal(t, "query query_search($term: String!, $tags: [String!]!) { search(term: $term, tags: $tags) }", op.String())
}

func Test_Operations_QueriesBeforeMutations(t *testing.T) {
	s := loadSDL(t, `
schema { query: Q mutation: M }
type Q { b: Int a: Int }
type M { z: Int y: Int }
`)

	ops, err := Operations(s, 1)
	require.NoError(t, err)

	var names []string
	for _, op := range ops {
		names = append(names, op.Name())
	}
	assert.Equal(t, []string{"query_b", "query_a", "mutation_z", "mutation_y"}, names)
}

func Test_Operations_SameFieldInBothRoots(t *testing.T) {
	s := loadSDL(t, `
type Query { item: Int }
type Mutation { item: Int }
`)

	ops := generate(t, s, 1)
	assert.Equal(t, []string{"query query_item { item }", "mutation mutation_item { item }"}, ops)
}

func Test_Operations_SkipsMetaFields(t *testing.T) {
	s := loadSDL(t, `type Query { ping: String }`)

	ops, err := Operations(s, 1)
	require.NoError(t, err)
	for _, op := range ops {
		assert.False(t, strings.HasPrefix(op.Field, "__"), "meta field %s synthesized", op.Field)
	}
}

func Test_Operations_InvalidInput(t *testing.T) {
	_, err := Operations(nil, 1)
	assert.Error(t, err)

	s := loadSDL(t, `type Query { ping: String }`)
	_, err = Operations(s, -1)
	assert.ErrorContains(t, err, "depth must be >= 0")
}

func Test_Generate_Deterministic(t *testing.T) {
	s := loadSDL(t, chainSDL)

	first := generate(t, s, 2)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, generate(t, s, 2))
	}
}

func Test_Generate_ConcurrentRuns(t *testing.T) {
	s := loadSDL(t, chainSDL)
	want := generate(t, s, 2)

	var wg sync.WaitGroup
	results := make([][]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Generate(s, 2)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		assert.Equal(t, want, got, "run %d", i)
	}
}

// ---------------------------------------------------------------------------
// Artifact
// ---------------------------------------------------------------------------

func Test_WriteFile_CreatesParentsAndSeparatesOps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graphql", "nested", "auto.graphql")
	ops := []string{"query query_a { a }", "query query_b { b }"}

	require.NoError(t, WriteFile(path, ops))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "query query_a { a }\n\nquery query_b { b }\n", string(data))

	doc, err := parser.ParseQuery(&ast.Source{Name: path, Input: string(data)})
	require.NoError(t, err)
	assert.Len(t, doc.Operations, 2)
}

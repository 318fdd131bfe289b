package proxy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/rpc-proxygen/pkg/tunnel"
)

func renderTree(t *testing.T) *Tree {
	t.Helper()
	tree := NewTree()
	require.NoError(t, tree.AddNamespace("vray"))
	require.NoError(t, tree.AddNamespace("vray.scene"))
	require.NoError(t, tree.AddMethod("vray.start", 0, true))
	require.NoError(t, tree.AddMethod("vray.scene.load", 2, true))
	require.NoError(t, tree.AddMethod("ping", 0, false))
	return tree
}

func TestTree_Errors(t *testing.T) {
	tree := renderTree(t)

	tests := []struct {
		name string
		err  error
	}{
		{"orphan namespace", tree.AddNamespace("missing.child")},
		{"orphan method", tree.AddMethod("missing.call", 0, false)},
		{"duplicate namespace", tree.AddNamespace("vray")},
		{"duplicate method", tree.AddMethod("vray.start", 1, false)},
		{"method shadows namespace", tree.AddMethod("vray.scene", 0, false)},
		{"namespace under method", tree.AddNamespace("ping.sub")},
		{"empty path", tree.AddNamespace("")},
		{"empty segment", tree.AddMethod("vray..x", 0, false)},
		{"leading dot", tree.AddMethod(".x", 0, false)},
		{"negative params", tree.AddMethod("vray.bad", -1, false)},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, tt.err, ErrInvalidArgument, tt.name)
	}
}

func TestTree_LookupAndOrder(t *testing.T) {
	tree := renderTree(t)

	node, ok := tree.Lookup("vray.scene.load")
	require.True(t, ok)
	m, ok := node.(*MethodNode)
	require.True(t, ok)
	assert.Equal(t, 2, m.ParamCount)

	root, ok := tree.Lookup("")
	require.True(t, ok)
	assert.Equal(t, []string{"vray", "ping"}, root.(*NamespaceNode).Names())

	_, ok = tree.Lookup("vray.nope")
	assert.False(t, ok)
	_, ok = tree.Lookup("ping.deeper")
	assert.False(t, ok)
}

func TestMount_DetachedMethodsDispatchThroughProxy(t *testing.T) {
	tree := renderTree(t)
	p, ft := newFakeProxy(t)
	p.Mount(tree)

	load := p.Namespace("vray").Namespace("scene").Method("load")
	require.NotNil(t, load)
	ping := p.Method("ping")
	require.NotNil(t, ping)

	p.UseSocket()
	load("a.vrscene", 1, "dropped", func(json.RawMessage, error) {})
	ping()

	sent := ft.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, tunnel.Request{Method: "vray.scene.load", Params: []any{"a.vrscene", 1}, ExpectReturn: true, Transport: tunnel.TransportSocket}, sent[0])
	assert.Equal(t, "ping", sent[1].Method)
	assert.False(t, sent[1].ExpectReturn)
}

func TestMount_LeavesTreeUnbound(t *testing.T) {
	tree := renderTree(t)
	p, _ := newFakeProxy(t)
	p.Mount(tree)

	node, _ := tree.Lookup("vray")
	assert.Nil(t, node.(*NamespaceNode).Method("start"))
	assert.NotNil(t, p.Namespace("vray").Method("start"))
}

func TestMount_Missing(t *testing.T) {
	p, _ := newFakeProxy(t)
	assert.Nil(t, p.Method("nope"))
	assert.Nil(t, p.Namespace("nope"))
	assert.Nil(t, p.Namespace("nope").Method("x"))
	assert.Nil(t, p.Namespace("nope").Names())

	p.Mount(renderTree(t))
	assert.Nil(t, p.Method("vray"))
	assert.Nil(t, p.Namespace("ping"))
}

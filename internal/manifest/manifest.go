// Package manifest loads YAML tree manifests and builds tree entries from them.
//
// A manifest looks like:
//
//	name: go-cli
//	description: minimal Go command layout
//	vars:
//	  module: example.com/app
//	tree:
//	  go.mod: |
//	    module {{.module}}
//	  cmd:
//	    app:
//	      main.go: |
//	        package main
//	  docs: {}
//
// Under tree, a scalar value is a file body, a mapping is a directory, and
// {} is an empty directory. File bodies are text/template sources evaluated
// against the manifest's vars (overridable per materialization).
package manifest

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/treeforge/treeforge/internal/tree"
)

// Manifest describes a named, parameterized directory tree.
type Manifest struct {
	Name        string
	Description string
	Vars        map[string]string
	root        *node
}

// node is one element of the declared tree: either a file body or a set of
// named children.
type node struct {
	file     bool
	body     string
	children map[string]*node
}

// Parse decodes a YAML manifest. Node names are validated with the same
// rules the tree package applies at creation time, so a bad manifest is
// rejected before any filesystem work happens.
func Parse(data []byte) (*Manifest, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("manifest: empty document")
	}
	top := doc.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("manifest: top level must be a mapping")
	}

	m := &Manifest{Vars: map[string]string{}}
	for i := 0; i < len(top.Content)-1; i += 2 {
		key, val := top.Content[i], top.Content[i+1]
		switch key.Value {
		case "name":
			m.Name = val.Value
		case "description":
			m.Description = val.Value
		case "vars":
			if err := val.Decode(&m.Vars); err != nil {
				return nil, fmt.Errorf("manifest: vars: %w", err)
			}
		case "tree":
			root, err := parseNode(val, "tree")
			if err != nil {
				return nil, err
			}
			if root.file {
				return nil, fmt.Errorf("manifest: tree must be a mapping")
			}
			m.root = root
		default:
			return nil, fmt.Errorf("manifest: unknown key %q", key.Value)
		}
	}
	if m.root == nil {
		return nil, fmt.Errorf("manifest: missing tree")
	}
	return m, nil
}

func parseNode(n *yaml.Node, at string) (*node, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return &node{file: true}, nil
		}
		return &node{file: true, body: n.Value}, nil
	case yaml.MappingNode:
		children := make(map[string]*node, len(n.Content)/2)
		for i := 0; i < len(n.Content)-1; i += 2 {
			name := n.Content[i].Value
			if err := tree.CheckName(name); err != nil {
				return nil, fmt.Errorf("manifest: %s: %w", at, err)
			}
			child, err := parseNode(n.Content[i+1], at+"/"+name)
			if err != nil {
				return nil, err
			}
			children[name] = child
		}
		return &node{children: children}, nil
	default:
		return nil, fmt.Errorf("manifest: %s: unsupported node (line %d)", at, n.Line)
	}
}

// Tree builds the entry tree, evaluating every file body as a template with
// the manifest's vars merged under the caller's overrides. Template errors
// surface here, before any side effects.
func (m *Manifest) Tree(overrides map[string]string) (tree.Entry, error) {
	vars := make(map[string]string, len(m.Vars)+len(overrides))
	for k, v := range m.Vars {
		vars[k] = v
	}
	for k, v := range overrides {
		vars[k] = v
	}
	return m.root.build("tree", vars)
}

func (n *node) build(at string, vars map[string]string) (tree.Entry, error) {
	if n.file {
		tmpl, err := template.New(at).Option("missingkey=error").Parse(n.body)
		if err != nil {
			return nil, fmt.Errorf("manifest: %s: %w", at, err)
		}
		var buf strings.Builder
		if err := tmpl.Execute(&buf, vars); err != nil {
			return nil, fmt.Errorf("manifest: %s: %w", at, err)
		}
		return tree.File(buf.String()), nil
	}
	dir := make(tree.Dir, len(n.children))
	for name, child := range n.children {
		entry, err := child.build(at+"/"+name, vars)
		if err != nil {
			return nil, err
		}
		dir[name] = entry
	}
	return dir, nil
}

// Node summarizes one declared tree element for API responses.
type Node struct {
	Path string `json:"path"`
	Dir  bool   `json:"dir"`
	Size int    `json:"size,omitempty"`
}

// Nodes lists every declared element, sorted by path. Size is the raw
// template length, not the rendered length.
func (m *Manifest) Nodes() []Node {
	var out []Node
	m.root.walk("", &out)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (n *node) walk(path string, out *[]Node) {
	for name, child := range n.children {
		p := name
		if path != "" {
			p = path + "/" + name
		}
		*out = append(*out, Node{Path: p, Dir: !child.file, Size: len(child.body)})
		if !child.file {
			child.walk(p, out)
		}
	}
}

// Package yamler builds yaml.Node trees to be encoded.
package yamler

import (
	"gopkg.in/yaml.v3"
)

// Text is a scalar node.
func Text(value string, options ...Option) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Value: value}
	for _, opt := range options {
		n = opt(n)
	}
	return n
}

// Str is a scalar node which is always read as a string, even if it looks like a number or a bool.
func Str(value string, options ...Option) *yaml.Node {
	return Text(value, append([]Option{WithTag("!!str")}, options...)...)
}

type Option func(*yaml.Node) *yaml.Node

func WithTag(tag string) Option {
	return func(n *yaml.Node) *yaml.Node {
		n.Tag = tag
		return n
	}
}

func WithHeadComment(comment string) Option {
	return func(n *yaml.Node) *yaml.Node {
		n.HeadComment = comment
		return n
	}
}

type MapEntry struct {
	Key   *yaml.Node
	Value *yaml.Node
}

func Entry(k *yaml.Node, v *yaml.Node) MapEntry {
	return MapEntry{Key: k, Value: v}
}

func Map(e ...MapEntry) *yaml.Node {
	content := []*yaml.Node{}

	for _, ee := range e {
		content = append(content, ee.Key)
		content = append(content, ee.Value)
	}

	return &yaml.Node{Kind: yaml.MappingNode, Content: content}
}

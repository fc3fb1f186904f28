package model

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/sommelier/core"
)

// Builder 根据产物构建聚类模型。
type Builder func(a *Artifact) (core.ClusteringModel, error)

var (
	builders   = make(map[string]Builder)
	buildersMu sync.RWMutex
)

func init() {
	Register("hard", buildHard)
	Register("kmeans", buildHard)
	Register("soft", buildSoft)
	Register("em", buildSoft)
}

// Register 注册一种模型产物的构建逻辑；同名覆盖。
func Register(kind string, builder Builder) {
	if kind == "" || builder == nil {
		return
	}
	buildersMu.Lock()
	defer buildersMu.Unlock()
	builders[kind] = builder
}

// SupportedKinds 返回已注册的产物类型（排序），用于错误提示与校验。
func SupportedKinds() []string {
	buildersMu.RLock()
	defer buildersMu.RUnlock()
	kinds := make([]string, 0, len(builders))
	for k := range builders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Build 按产物 Kind 构建模型。
func Build(a *Artifact) (core.ClusteringModel, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil artifact", core.ErrInvalidInput)
	}
	buildersMu.RLock()
	b, ok := builders[a.Kind]
	buildersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unsupported model kind %q (supported: %v)", core.ErrUnsupportedModel, a.Kind, SupportedKinds())
	}
	return b(a)
}

func buildHard(a *Artifact) (core.ClusteringModel, error) {
	m, err := NewHard(a.Assignments, a.Centroids)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func buildSoft(a *Artifact) (core.ClusteringModel, error) {
	disp, err := a.Dispersions()
	if err != nil {
		return nil, err
	}
	m, err := NewSoft(a.Weights, a.Means, disp, a.Membership)
	if err != nil {
		return nil, err
	}
	return m, nil
}

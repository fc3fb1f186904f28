package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/sommelier/core"
)

// 协方差类型
const (
	CovarianceSpherical = "spherical" // 每簇一个标量方差
	CovarianceFull      = "full"      // 每簇一个 d×d 矩阵
)

// Artifact 是聚类模型的持久化产物（支持 YAML/JSON）。
//
// 硬聚类：
//
//	kind: hard
//	assignments: [0, 2, 1, ...]
//	centroids: [[...], [...]]
//
// 软聚类：
//
//	kind: soft
//	weights: [...]
//	means: [[...], [...]]
//	covariance_type: spherical
//	covariances: [0.1, 0.2]
//	membership: [[0.9, 0.1], ...]
type Artifact struct {
	Kind string `yaml:"kind" json:"kind"`

	Assignments []int       `yaml:"assignments,omitempty" json:"assignments,omitempty"`
	Centroids   [][]float64 `yaml:"centroids,omitempty" json:"centroids,omitempty"`

	Weights         []float64     `yaml:"weights,omitempty" json:"weights,omitempty"`
	Means           [][]float64   `yaml:"means,omitempty" json:"means,omitempty"`
	CovarianceType  string        `yaml:"covariance_type,omitempty" json:"covariance_type,omitempty"`
	Covariances     []float64     `yaml:"covariances,omitempty" json:"covariances,omitempty"`
	FullCovariances [][][]float64 `yaml:"full_covariances,omitempty" json:"full_covariances,omitempty"`
	Membership      [][]float64   `yaml:"membership,omitempty" json:"membership,omitempty"`
}

// LoadArtifact 按扩展名从 YAML 或 JSON 文件加载模型产物。
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var a Artifact
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown artifact extension %q", core.ErrInvalidInput, filepath.Ext(path))
	}
	return &a, nil
}

// Load 加载产物并按 Kind 构建模型。
func Load(path string) (core.ClusteringModel, error) {
	a, err := LoadArtifact(path)
	if err != nil {
		return nil, err
	}
	m, err := Build(a)
	if err != nil {
		return nil, fmt.Errorf("build model from %s: %w", path, err)
	}
	return m, nil
}

// Dispersions 把产物中的协方差转换为 core.Dispersion。
func (a *Artifact) Dispersions() ([]core.Dispersion, error) {
	switch a.CovarianceType {
	case "", CovarianceSpherical:
		out := make([]core.Dispersion, len(a.Covariances))
		for k, v := range a.Covariances {
			out[k] = core.Dispersion{Variance: v}
		}
		return out, nil
	case CovarianceFull:
		out := make([]core.Dispersion, len(a.FullCovariances))
		for k, rows := range a.FullCovariances {
			n := len(rows)
			data := make([]float64, 0, n*n)
			for i, row := range rows {
				if len(row) != n {
					return nil, fmt.Errorf("%w: covariance %d row %d has %d columns, want %d", core.ErrInvalidInput, k, i, len(row), n)
				}
				data = append(data, row...)
			}
			if n == 0 {
				return nil, fmt.Errorf("%w: covariance %d is empty", core.ErrInvalidInput, k)
			}
			out[k] = core.Dispersion{Matrix: mat.NewSymDense(n, data)}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown covariance_type %q", core.ErrInvalidInput, a.CovarianceType)
	}
}

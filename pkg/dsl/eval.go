package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/sommelier/core"
	"github.com/rushteam/sommelier/pkg/utils"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("wine", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("label", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("rctx", cel.MapType(cel.StringType, cel.DynType)),
		// wine.price <= 40 与 wine.price <= 40.0 等价
		cel.CrossTypeNumericComparisons(true),
	)
}

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Expr 是编译好的候选约束表达式（CEL 语法），可在多个 goroutine 中复用。
//
// 可用变量：
//   - wine.index / wine.price / wine.score / wine.nnz
//   - wine.malformed_price / wine.malformed_score
//   - label.<key>：当前槽位 Label 的 value
//   - rctx.user_id / rctx.batch_id / rctx.demo
//
// 示例：
//   - `wine.price <= 40`
//   - `!wine.malformed_score && wine.score >= 90`
//   - `rctx.demo || wine.price < 100`
type Expr struct {
	src string
	prg cel.Program
}

// Compile 编译表达式；空表达式返回 nil，nil *Expr 总是求值为 true。
func Compile(expr string) (*Expr, error) {
	if expr == "" {
		return nil, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: init env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: compile %q: %v", core.ErrInvalidInput, expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: program %q: %v", core.ErrInvalidInput, expr, err)
	}
	return &Expr{src: expr, prg: prg}, nil
}

// MustCompile 同 Compile，失败时 panic；用于测试与包级变量。
func MustCompile(expr string) *Expr {
	e, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Expr) String() string {
	if e == nil {
		return ""
	}
	return e.src
}

// Eval 对单款酒求值，表达式必须返回布尔值。
// 访问不存在的 label key 会报错，可先用 `"key" in label` 判断。
func (e *Expr) Eval(w *core.Wine, rctx *core.RecommendContext, labels map[string]utils.Label) (bool, error) {
	if e == nil {
		return true, nil
	}
	out, _, err := e.prg.Eval(buildInput(w, rctx, labels))
	if err != nil {
		return false, fmt.Errorf("dsl: eval %q: %w", e.src, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: expression %q must return boolean, got %T", core.ErrInvalidInput, e.src, out.Value())
	}
	return result, nil
}

func buildInput(w *core.Wine, rctx *core.RecommendContext, labels map[string]utils.Label) map[string]any {
	wine := map[string]any{
		"index":           int64(w.Index),
		"price":           w.Price,
		"score":           w.Score,
		"nnz":             int64(len(w.Features.Indices)),
		"malformed_price": w.MalformedPrice(),
		"malformed_score": w.MalformedScore(),
	}

	label := make(map[string]string, len(labels))
	for k, v := range labels {
		label[k] = v.Value
	}

	ctx := map[string]any{
		"user_id":  "",
		"batch_id": "",
		"demo":     false,
	}
	if rctx != nil {
		ctx["user_id"] = rctx.UserID
		ctx["batch_id"] = rctx.BatchID
		ctx["demo"] = len(rctx.DemoClusters) > 0
	}

	return map[string]any{
		"wine":  wine,
		"label": label,
		"rctx":  ctx,
	}
}

package core

import "context"

// HistoryReader 是推荐核心消费的历史接口：只读快照。
type HistoryReader interface {
	// History 返回用户在调用时刻的历史记录快照（按时间顺序）
	History(ctx context.Context, userID string) ([]HistoryRecord, error)
}

// HistoryStore 是历史存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 推荐核心只依赖 HistoryReader；Append 由外部（CLI / 反馈收集）调用
//
// 实现：
//   - store.MemoryHistory：测试/开发
//   - store.FileHistory：每个用户一个 JSON Lines 文件
//   - store.RedisHistory：生产环境，带熔断
type HistoryStore interface {
	HistoryReader

	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Append 追加一条历史记录
	Append(ctx context.Context, userID string, record HistoryRecord) error

	// Close 关闭连接/释放资源
	Close() error
}

package snowflake

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

var (
	node     *snowflake.Node
	nodeOnce sync.Once
)

// Init 初始化雪花算法节点，程序启动时调用一次
// machineID 超出 0-1023 时回退为 1
func Init(machineID int64) {
	nodeOnce.Do(func() {
		if machineID < 0 || machineID > 1023 {
			zap.L().Warn("invalid snowflake machine id, using 1", zap.Int64("machineID", machineID))
			machineID = 1
		}
		var err error
		node, err = snowflake.NewNode(machineID)
		if err != nil {
			zap.L().Fatal("failed to initialize snowflake node", zap.Error(err))
		}
		zap.L().Info("snowflake node initialized", zap.Int64("machineID", machineID))
	})
}

// GenerateID 生成雪花 ID，未初始化时使用节点 1
func GenerateID() int64 {
	Init(1)
	return node.Generate().Int64()
}

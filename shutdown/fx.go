package shutdown

import (
	"go.uber.org/fx"
)

/* ========================================================================
 * Shutdown FX Module - 优雅关停 FX 模块
 * ========================================================================
 * 职责: 提供 FX 依赖注入支持
 * ======================================================================== */

// Module FX 模块
var Module = fx.Module("shutdown",
	fx.Provide(NewManager),
)

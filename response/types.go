package response

/* ========================================================================
 * Response Types - 响应类型定义
 * ========================================================================
 * 职责: 定义标准 API 响应结构
 * ======================================================================== */

// Result 标准 API 响应结构
type Result struct {
	Code   int                 `json:"code"`
	Msg    string              `json:"msg"`
	Data   interface{}         `json:"data"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// PageResult 分页响应结构
type PageResult struct {
	List     interface{} `json:"list"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

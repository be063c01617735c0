package response

import (
	"net/http"

	"github.com/worklane/worklane/errors"
	"github.com/worklane/worklane/repository"

	"github.com/gofiber/fiber/v3"
)

/* ========================================================================
 * Response - 统一响应处理
 * ========================================================================
 * 职责: 提供统一的 HTTP 响应处理函数
 * 特性:
 *   - 标准 JSON 响应格式
 *   - 与 errors 包集成，自动识别 BizError 和字段级校验错误
 *   - 支持分页响应
 * ======================================================================== */

// newResp 创建响应对象
func newResp(code int, msg string, data interface{}) *Result {
	resp := &Result{
		Code: code,
		Msg:  msg,
	}

	// 确保 data 字段不为 nil
	if data == nil {
		resp.Data = &struct{}{}
	} else {
		resp.Data = data
	}

	return resp
}

// respJSONWithStatusCode 返回 JSON 响应
func respJSONWithStatusCode(c fiber.Ctx, code int, msg string, data ...interface{}) error {
	var firstData interface{}
	if len(data) > 0 {
		firstData = data[0]
	}

	if code > http.StatusNetworkAuthenticationRequired || code < http.StatusContinue {
		code = http.StatusInternalServerError
	}

	resp := newResp(code, msg, firstData)
	return c.Status(code).JSON(resp)
}

/* ========================================================================
 * 成功响应
 * ======================================================================== */

// Ok 返回成功响应 (默认消息 "ok")
func Ok(c fiber.Ctx) error {
	return respJSONWithStatusCode(c, http.StatusOK, "ok")
}

// OkWithData 返回成功响应（带数据）
func OkWithData(c fiber.Ctx, data interface{}) error {
	return respJSONWithStatusCode(c, http.StatusOK, "ok", data)
}

// Created 返回 201 响应（带数据）
func Created(c fiber.Ctx, data interface{}) error {
	return respJSONWithStatusCode(c, http.StatusCreated, "ok", data)
}

/* ========================================================================
 * 错误响应
 * ======================================================================== */

// Error 返回错误响应
// 自动识别 BizError 类型，使用其 HTTP 状态码、错误消息和字段明细
func Error(c fiber.Ctx, err error) error {
	if err == nil {
		return Ok(c)
	}

	status, body := errors.ToHTTPResponse(err)
	return c.Status(status).JSON(Result{
		Code:   body.Code,
		Msg:    body.Msg,
		Data:   &struct{}{},
		Fields: body.Fields,
	})
}

// Unauthorized 返回 401 错误
func Unauthorized(c fiber.Ctx, msg string) error {
	return respJSONWithStatusCode(c, http.StatusUnauthorized, msg)
}

// NotFound 返回 404 错误
func NotFound(c fiber.Ctx, msg string) error {
	return respJSONWithStatusCode(c, http.StatusNotFound, msg)
}

// TooManyRequests 返回 429 错误
func TooManyRequests(c fiber.Ctx, msg string) error {
	return respJSONWithStatusCode(c, http.StatusTooManyRequests, msg)
}

// InternalError 返回 500 错误
func InternalError(c fiber.Ctx, msg string) error {
	return respJSONWithStatusCode(c, http.StatusInternalServerError, msg)
}

/* ========================================================================
 * 分页响应
 * ======================================================================== */

// PageData 返回分页数据
func PageData(c fiber.Ctx, list interface{}, total int64, page, pageSize int) error {
	return OkWithData(c, &PageResult{
		List:     list,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// Page 直接渲染仓储层的分页结果
func Page[T any](c fiber.Ctx, result *repository.PageResult[T]) error {
	return PageData(c, result.List, result.Total, result.Page, result.PageSize)
}

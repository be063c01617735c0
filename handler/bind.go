package handler

import (
	"strconv"

	"github.com/worklane/worklane/errors"
	"github.com/worklane/worklane/validator"

	"github.com/gofiber/fiber/v3"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// bindBody 解析并校验请求体
// 校验失败转换为带字段明细的 Validation 错误, 统一走 422 响应
func bindBody(c fiber.Ctx, v *validator.Validator, out any) error {
	if err := c.Bind().Body(out); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidArgument, "malformed request body", err)
	}
	if err := v.Validate(out); err != nil {
		verr, ok := err.(*validator.ValidationError)
		if !ok {
			return errors.Wrap(errors.ErrCodeInvalidArgument, "invalid request", err)
		}
		fields := errors.NewFieldErrors()
		for _, name := range verr.Fields() {
			for _, msg := range verr.Get(name) {
				fields.Add(name, msg)
			}
		}
		return errors.Validation(fields)
	}
	return nil
}

// pageParams 解析分页查询参数, 越界时收敛到默认值
func pageParams(c fiber.Ctx) (page, pageSize int) {
	page, _ = strconv.Atoi(c.Query("page"))
	if page <= 0 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.Query("page_size"))
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// pathID 解析路径中的雪花 ID
func pathID(c fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidArgument, "invalid id")
	}
	return id, nil
}

package handler

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"

	"quill-ai-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// errBadJSON 表示请求体不是合法的 JSON。
var errBadJSON = errors.New("request body must be a JSON object")

var registerOnce sync.Once

// registerValidators 注册 notblank 规则，并让校验错误使用 JSON 字段名。
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
}

// 这些规则失败时字段计入 Missing，其余计入 Invalid。
var missingTags = map[string]bool{"required": true, "notblank": true}

// bindJSON 解析并校验请求体。空请求体按 {} 校验。
func bindJSON(c *gin.Context, obj interface{}) error {
	registerValidators()

	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(obj)
	}
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errBadJSON
	}
	out := &service.ValidationError{}
	for _, fe := range verrs {
		if missingTags[fe.Tag()] {
			out.Missing = append(out.Missing, fe.Field())
		} else {
			out.Invalid = append(out.Invalid, fe.Field())
		}
	}
	return out
}

package handler

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// trans 参数错误提示使用的翻译器，由 InitTrans 设置
var trans ut.Translator

// notblankText 各语言下 notblank 的提示
var notblankText = map[string]string{
	"zh": "{0}不能为空白",
	"en": "{0} cannot be blank",
}

// InitTrans 替换 gin 的校验引擎配置：字段名取 json tag，错误提示按 locale 翻译，
// 并注册 notblank（去掉空白后不能为空）
func InitTrans(locale string) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	v.RegisterTagNameFunc(jsonFieldName)

	uni := ut.New(en.New(), zh.New(), en.New())
	t, found := uni.GetTranslator(locale)
	if !found {
		return fmt.Errorf("no translator for locale %q", locale)
	}

	var err error
	if locale == "zh" {
		err = zh_translations.RegisterDefaultTranslations(v, t)
	} else {
		err = en_translations.RegisterDefaultTranslations(v, t)
	}
	if err != nil {
		return err
	}
	if err := registerNotBlank(v, t, locale); err != nil {
		return err
	}
	trans = t
	return nil
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func registerNotBlank(v *validator.Validate, t ut.Translator, locale string) error {
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		return err
	}
	text, ok := notblankText[locale]
	if !ok {
		text = notblankText["en"]
	}
	return v.RegisterTranslation("notblank", t,
		func(ut ut.Translator) error { return ut.Add("notblank", text, true) },
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("notblank", fe.Field())
			return msg
		})
}

// fieldErrors 翻译校验错误，键去掉结构体名：RegisterRequest.username -> username
func fieldErrors(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for ns, msg := range errs.Translate(trans) {
		_, field, found := strings.Cut(ns, ".")
		if !found {
			field = ns
		}
		out[field] = msg
	}
	return out
}

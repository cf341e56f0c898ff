package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），可穿透 fmt.Errorf("%w") 包装
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - Flow 错误：NO_MENTIONS, EMPTY_DOCUMENT_FLOW
//   - Graph 错误：UNAVAILABLE
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "EMPTY_DOCUMENT_FLOW"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "flow", "graph"）
	Err     error  // 底层错误（可选）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is 按 Module + Code 判断是否同类错误，便于 errors.Is(err, ErrEmptyDocumentFlow)。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Module == t.Module && e.Code == t.Code
}

// IsDomainError 检查错误链中是否存在 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的第一个 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 创建携带底层错误的领域错误
func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// 文档级错误代码：整篇文档失败，不做部分应用
	ErrorCodeNoMentions        = "NO_MENTIONS"         // 文档没有任何 mention（N = 0）
	ErrorCodeEmptyDocumentFlow = "EMPTY_DOCUMENT_FLOW" // 全文平均 flow 为空，floor 无定义
)

// 模块名称常量
const (
	ModuleStore  = "store"  // 存储模块
	ModuleFlow   = "flow"   // flow 聚合模块
	ModuleFetch  = "fetch"  // flow 拉取模块
	ModuleRerank = "rerank" // 重排模块
	ModuleGraph  = "graph"  // 图查询服务模块
)

var (
	// ErrNoMentions 表示文档 mention 数为 0，聚合除数无效
	ErrNoMentions = NewDomainError(ModuleFlow, ErrorCodeNoMentions, "flow: document has no mentions")

	// ErrEmptyDocumentFlow 表示所有 mention 均未拿到 flow 数据
	ErrEmptyDocumentFlow = NewDomainError(ModuleFlow, ErrorCodeEmptyDocumentFlow, "flow: document has no flow data")
)

// 通用错误检查函数

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	return hasCode(err, ErrorCodeNotSupported)
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	return hasCode(err, ErrorCodeUnavailable)
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrorCodeInvalidInput)
}

// IsNoMentions 检查错误是否为 NO_MENTIONS
func IsNoMentions(err error) bool {
	return hasCode(err, ErrorCodeNoMentions)
}

// IsEmptyDocumentFlow 检查错误是否为 EMPTY_DOCUMENT_FLOW
func IsEmptyDocumentFlow(err error) bool {
	return hasCode(err, ErrorCodeEmptyDocumentFlow)
}

// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

type ErrorType int32

const (
	SystemError ErrorType = 0
	InputError  ErrorType = 1
)

var ErrorTypeName = map[ErrorType]string{
	SystemError: "system_error",
	InputError:  "input_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// 叶子错误统一在这里定义。
// WARN: 新增错误前请先确认下面已有的错误是否可以复用。
// 命名规则：Err + 相关前缀 + 错误名
var (
	// Configuration related，注册表构造阶段的致命错误
	ErrConfiguration      = newSerialError("configuration error", 100, false)
	ErrLengthMismatch     = newSerialError("class names and handlers length mismatch", 101, false, withClass(100))
	ErrDuplicateClassName = newSerialError("duplicate class name", 102, false, withClass(100))

	// Buffer related
	ErrCapacityExceeded = newSerialError("serialization exceeds max length of raw vector", 200, false)

	// Stream related，输入数据损坏或被截断
	ErrUnderrun          = newSerialError("unserialization error: input underrun", 300, false, WithErrorType(InputError))
	ErrBadLengthEncoding = newSerialError("bad payload length encoding", 301, false, WithErrorType(InputError))
	ErrSizeTooLarge      = newSerialError("payload size too large", 302, false, WithErrorType(InputError))
	ErrMalformedRecord   = newSerialError("malformed record", 303, false, WithErrorType(InputError))
	ErrVersionMismatch   = newSerialError("stream requires a newer reader", 304, false, WithErrorType(InputError))

	// Handler related
	ErrHandlerFailure  = newSerialError("handler failure", 400, false)
	ErrUnknownClassTag = newSerialError("unknown class tag", 401, false)

	// Host related
	ErrUnsupportedValue = newSerialError("value cannot be serialized", 500, false, WithErrorType(InputError))

	// General
	ErrParameterInvalid = newSerialError("invalid parameter", 1100, false)

	// Do NOT export this,
	// never allow programmer using this, keep only for converting unknown error to serialError
	errUnexpected = newSerialError("unexpected error", (1<<16)-1, false)
)

type errorOption func(*serialError)

func WithErrorType(etype ErrorType) errorOption {
	return func(err *serialError) {
		err.errType = etype
	}
}

// withClass 将错误挂到一个父错误码之下，errors.Is(err, 父错误) 同样成立。
func withClass(code int32) errorOption {
	return func(err *serialError) {
		err.errClass = code
	}
}

type serialError struct {
	msg       string
	detail    string
	retriable bool
	errCode   int32
	errClass  int32
	errType   ErrorType
}

func newSerialError(msg string, code int32, retriable bool, options ...errorOption) serialError {
	err := serialError{
		msg:       msg,
		detail:    msg,
		retriable: retriable,
		errCode:   code,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e serialError) code() int32 {
	return e.errCode
}

func (e serialError) Error() string {
	return e.msg
}

func (e serialError) Detail() string {
	return e.detail
}

func (e serialError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(serialError); ok {
		return e.errCode == cause.errCode || (e.errClass != 0 && e.errClass == cause.errCode)
	}
	return false
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	// To make merr work for multi errors,
	// we need cause of multi errors, which defined as the last error
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}

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
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Code 返回给定错误对应的错误码。
// 非 merr 定义的错误统一返回 errUnexpected 的错误码。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	var serr serialError
	if errors.As(err, &serr) {
		return serr.code()
	}
	return errUnexpected.code()
}

func IsRetryableErr(err error) bool {
	var serr serialError
	if errors.As(err, &serr) {
		return serr.retriable
	}
	return false
}

// IsFatal 判断错误是否会终止整个序列化/反序列化调用。
// UnknownClassTag 会在读取端降级为占位值，其余错误均为致命错误。
// 写入端的处理器失败不会以错误形式出现，而是直接拒绝处理该值。
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrUnknownClassTag)
}

func GetErrorType(err error) ErrorType {
	var serr serialError
	if errors.As(err, &serr) {
		return serr.errType
	}
	return SystemError
}

// Configuration 相关错误封装。
func WrapErrLengthMismatch(names, handlers int, msg ...string) error {
	err := wrapFields(ErrLengthMismatch,
		value("names", names),
		value("handlers", handlers),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrDuplicateClassName(name string, msg ...string) error {
	err := wrapFields(ErrDuplicateClassName, value("class", name))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Buffer 相关错误封装。
func WrapErrCapacityExceeded(required, limit uint64, msg ...string) error {
	err := wrapFields(ErrCapacityExceeded, bound("capacity", required, 0, limit))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Stream 相关错误封装。
func WrapErrUnderrun(want, available int, msg ...string) error {
	err := wrapFields(ErrUnderrun,
		value("want", want),
		value("available", available),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrBadLengthEncoding(encoded string, msg ...string) error {
	err := wrapFields(ErrBadLengthEncoding, value("encoded", fmt.Sprintf("%q", encoded)))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrSizeTooLarge(size string, limit uint64, msg ...string) error {
	err := wrapFields(ErrSizeTooLarge, bound("size", size, 0, limit))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrMalformedRecord(reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrMalformedRecord, reason)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrVersionMismatch(required, current string) error {
	return wrapFields(ErrVersionMismatch,
		value("required", required),
		value("current", current),
	)
}

// Handler 相关错误封装。
func WrapErrHandlerFailure(class string, cause error) error {
	if cause == nil {
		return wrapFields(ErrHandlerFailure, value("class", class))
	}
	return wrapFieldsWithDesc(ErrHandlerFailure, cause.Error(), value("class", class))
}

func WrapErrUnknownClassTag(class string) error {
	return wrapFields(ErrUnknownClassTag, value("class", class))
}

// Host 相关错误封装。
func WrapErrUnsupportedValue(v any, msg ...string) error {
	err := wrapFields(ErrUnsupportedValue, value("type", fmt.Sprintf("%T", v)))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalid[T any](expected, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		value("expected", expected),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalidMsg(fmt string, args ...any) error {
	return errors.Wrapf(ErrParameterInvalid, fmt, args...)
}

func wrapFields(err serialError, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.detail = err.msg
	return err
}

func wrapFieldsWithDesc(err serialError, desc string, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.msg += ": " + desc
	err.detail = err.msg
	return err
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func value(name string, value any) valueField {
	return valueField{
		name,
		value,
	}
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}

type boundField struct {
	name  string
	value any
	lower any
	upper any
}

func bound(name string, value, lower, upper any) boundField {
	return boundField{
		name,
		value,
		lower,
		upper,
	}
}

func (f boundField) String() string {
	return fmt.Sprintf("%v out of range %v <= %s <= %v", f.value, f.lower, f.name, f.upper)
}

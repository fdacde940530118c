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
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrDuplicateClassName("blob")
	errors.Wrap(err, "failed to build registry")
	s.ErrorIs(err, ErrDuplicateClassName)
	s.Equal(Code(ErrDuplicateClassName), Code(err))
	s.Equal(errUnexpected.errCode, Code(errors.New("plain")))
	s.Equal(int32(0), Code(nil))

	sameCodeErr := newSerialError("new error", ErrUnderrun.errCode, false)
	s.True(sameCodeErr.Is(ErrUnderrun))
}

func (s *ErrSuite) TestClass() {
	s.ErrorIs(WrapErrLengthMismatch(2, 1), ErrConfiguration)
	s.ErrorIs(WrapErrDuplicateClassName("blob"), ErrConfiguration)
	s.ErrorIs(errors.Wrap(WrapErrDuplicateClassName("blob"), "registry"), ErrConfiguration)
	s.NotErrorIs(ErrConfiguration, ErrLengthMismatch)
	s.NotErrorIs(WrapErrUnderrun(4, 2), ErrConfiguration)
}

func (s *ErrSuite) TestWrap() {
	s.ErrorIs(WrapErrLengthMismatch(2, 1, "build"), ErrLengthMismatch)
	s.ErrorIs(WrapErrCapacityExceeded(10, 8), ErrCapacityExceeded)
	s.ErrorIs(WrapErrUnderrun(4, 2), ErrUnderrun)
	s.ErrorIs(WrapErrBadLengthEncoding("12x"), ErrBadLengthEncoding)
	s.ErrorIs(WrapErrSizeTooLarge("99999999999999999999", 1<<52), ErrSizeTooLarge)
	s.ErrorIs(WrapErrMalformedRecord("bad marker"), ErrMalformedRecord)
	s.ErrorIs(WrapErrVersionMismatch("9.0.0", "1.0.0"), ErrVersionMismatch)
	s.ErrorIs(WrapErrHandlerFailure("blob", errors.New("boom")), ErrHandlerFailure)
	s.ErrorIs(WrapErrHandlerFailure("blob", nil), ErrHandlerFailure)
	s.ErrorIs(WrapErrUnknownClassTag("blob"), ErrUnknownClassTag)
	s.ErrorIs(WrapErrUnsupportedValue(struct{}{}), ErrUnsupportedValue)
	s.ErrorIs(WrapErrParameterInvalid(1, 2), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidMsg("bad %s", "format"), ErrParameterInvalid)

	s.Contains(WrapErrDuplicateClassName("blob").Error(), "class=blob")
	s.Contains(WrapErrBadLengthEncoding("12x").Error(), `"12x"`)
}

func (s *ErrSuite) TestFatal() {
	s.True(IsFatal(WrapErrUnderrun(1, 0)))
	s.True(IsFatal(errors.New("io")))
	s.False(IsFatal(nil))
	s.True(IsFatal(WrapErrHandlerFailure("blob", nil)))
	s.False(IsFatal(WrapErrUnknownClassTag("blob")))
}

func (s *ErrSuite) TestType() {
	s.Equal(InputError, GetErrorType(WrapErrBadLengthEncoding("x")))
	s.Equal(SystemError, GetErrorType(WrapErrCapacityExceeded(1, 0)))
	s.Equal(SystemError, GetErrorType(errors.New("plain")))
	s.Equal("input_error", InputError.String())
	s.False(IsRetryableErr(ErrUnderrun))
}

func (s *ErrSuite) TestDetail() {
	s.Equal(ErrUnderrun.Error(), ErrUnderrun.Detail())

	var serr serialError
	s.Require().True(errors.As(WrapErrSizeTooLarge("99999999999999999999", 1<<52), &serr))
	s.Equal(serr.Error(), serr.Detail())
	s.Contains(serr.Detail(), "<= size <=")
}

func (s *ErrSuite) TestCombineErrors() {
	errs := Combine(nil, ErrUnderrun, nil, ErrSizeTooLarge)
	s.True(errors.Is(errs, ErrUnderrun))
	s.True(errors.Is(errs, ErrSizeTooLarge))
	s.False(errors.Is(errs, ErrConfiguration))
	s.Nil(Combine(nil, nil))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}

// Copyright 2021 Consortium GARR and University of Rome "Tor Vergata"
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package serrors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/netgroup/srv6-controller/pkg/private/serrors"
)

func TestNew(t *testing.T) {
	err := serrors.New("resolution failed", "node", "r1")
	assert.Equal(t, "resolution failed {node=r1}", err.Error())

	// Two errors created by New are distinct sentinels.
	other := serrors.New("resolution failed", "node", "r1")
	assert.False(t, errors.Is(err, other))
	assert.True(t, errors.Is(err, err))
}

func TestWrap(t *testing.T) {
	cause := serrors.New("connection refused")
	err := serrors.Wrap("dialing node manager", cause, "node", "fcff::1")
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t,
		"dialing node manager {node=fcff::1}: connection refused",
		err.Error())
}

func TestJoin(t *testing.T) {
	sentinel := serrors.New("node not found")
	cause := serrors.New("lookup failed")

	err := serrors.Join(sentinel, cause, "node", "r9")
	assert.True(t, errors.Is(err, sentinel))
	assert.True(t, errors.Is(err, cause))

	noCause := serrors.Join(sentinel, nil, "node", "r9")
	assert.True(t, errors.Is(noCause, sentinel))

	assert.NoError(t, serrors.Join(nil, nil))
}

func TestList(t *testing.T) {
	list := serrors.List{
		serrors.New("first"),
		serrors.New("second"),
	}
	assert.Equal(t, "[ first; second ]", list.Error())
	assert.Error(t, list.ToError())
	assert.NoError(t, serrors.List{}.ToError())
}

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

package log_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/netgroup/srv6-controller/pkg/log"
)

func TestFromCtxFallback(t *testing.T) {
	assert.NotNil(t, log.FromCtx(context.Background()))
	assert.NotNil(t, log.FromCtx(nil)) //nolint:staticcheck // nil ctx on purpose
}

func TestCtxWith(t *testing.T) {
	logger := log.DiscardLogger{}
	ctx := log.CtxWith(context.Background(), logger)
	assert.Equal(t, logger, log.FromCtx(ctx))
}

func TestWithLabels(t *testing.T) {
	ctx, logger := log.WithLabels(context.Background(), "request", "add")
	assert.NotNil(t, logger)
	assert.Equal(t, logger, log.FromCtx(ctx))
}

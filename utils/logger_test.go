/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogLevel(" DEBUG "))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("verbose"))
}

func TestJSONLogFormatter(t *testing.T) {
	f := &JSONLogFormatter{LoggerName: "AUTH"}
	entry := &logrus.Entry{
		Time:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "login failed",
		Data:    logrus.Fields{"email": "a@b.c", "error": errors.New("boom")},
	}
	b, err := f.Format(entry)
	require.NoError(t, err)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &rec))
	assert.Equal(t, "warning", rec["level"])
	assert.Equal(t, "AUTH", rec["model"])
	assert.Equal(t, "2025-01-02 03:04:05.000", rec["time"])
	fields := rec["fields"].(map[string]interface{})
	assert.Equal(t, "boom", fields["error"])
}

func TestSetLoggerLevelByName(t *testing.T) {
	l := NewLogger("LEVELTEST")
	require.True(t, SetLoggerLevel("LEVELTEST", "error"))
	assert.Equal(t, logrus.ErrorLevel, l.GetLevel())
	assert.False(t, SetLoggerLevel("NOPE", "debug"))
	assert.Same(t, l, GetLogger("LEVELTEST"))
}

func TestEnvDefaultBool(t *testing.T) {
	t.Setenv("CATALOG_TEST_FLAG", "yes")
	assert.True(t, EnvDefaultBool("CATALOG_TEST_FLAG", false))
	t.Setenv("CATALOG_TEST_FLAG", "garbage")
	assert.True(t, EnvDefaultBool("CATALOG_TEST_FLAG", true))
	assert.Equal(t, "x", EnvDefaultString("CATALOG_TEST_UNSET", "x"))
}

func TestConfigureFormatWhileCreatingLoggers(t *testing.T) {
	_, format := logDefaults()
	t.Cleanup(func() { ConfigureLogFormat(format) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				ConfigureLogFormat("json")
			} else {
				ConfigureLogFormat(" TEXT ")
			}
		}(i)
		go func(i int) {
			defer wg.Done()
			l := NewLogger(fmt.Sprintf("FORMATRACE%d", i))
			assert.NotNil(t, l.Formatter)
		}(i)
	}
	wg.Wait()

	ConfigureLogFormat(" JSON ")
	_, got := logDefaults()
	assert.Equal(t, "json", got)
	_, ok := NewLogger("FORMATJSON").Formatter.(*JSONLogFormatter)
	assert.True(t, ok)
}

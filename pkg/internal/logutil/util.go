/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logutil

import (
	"fmt"
	"strings"

	"github.com/hyperledger/aries-framework-go/spi/log"
)

const format = "command=[%s] action=[%s] %s%s=[%s]"

// LogError logs a failed command action with optional key/value data.
func LogError(logger log.Logger, command, action, errMsg string, data ...string) {
	logger.Errorf(format, command, action, fields(data), "errMsg", errMsg)
}

// LogDebug logs a command action at debug level.
func LogDebug(logger log.Logger, command, action, msg string, data ...string) {
	logger.Debugf(format, command, action, fields(data), "msg", msg)
}

// LogInfo logs a command action at info level.
func LogInfo(logger log.Logger, command, action, msg string, data ...string) {
	logger.Infof(format, command, action, fields(data), "msg", msg)
}

// CreateKeyValueString creates a concatenated string.
func CreateKeyValueString(key, val string) string {
	return fmt.Sprintf("%s=[%s]", key, val)
}

func fields(data []string) string {
	if len(data) == 0 {
		return ""
	}

	return strings.Join(data, " ") + " "
}

/*
Copyright SUSE LLC.
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*Package eyecandy provides common methods to print messages with emojis
 */
package eyecandy

import (
	"fmt"
	"os"
	"regexp"

	"github.com/kyokomi/emoji/v2"
	"golang.org/x/term"
)

var emojiRe = regexp.MustCompile(`:[a-zA-Z0-9-_+]+?:`)

var statusEmojis = map[string]string{
	"ok":    ":white_check_mark:",
	"empty": ":zzz:",
	"err":   ":x:",
}

func ESPrintf(emojisDisabled bool, format string, v ...interface{}) string {
	if emojisDisabled {
		return fmt.Sprintf(removeEmojiFromString(format), v...)
	}
	return emoji.Sprintf(format, v...)
}

func ESPrint(emojisDisabled bool, s string) string {
	if emojisDisabled {
		return fmt.Sprint(removeEmojiFromString(s))
	}
	return emoji.Sprint(s)
}

// Status prefixes msg with the emoji of a resolution status ("ok", "empty"
// or "err").
func Status(emojisDisabled bool, status, msg string) string {
	e, ok := statusEmojis[status]
	if !ok {
		return ESPrint(emojisDisabled, msg)
	}
	return ESPrint(emojisDisabled, e+" "+msg)
}

// IsTerminal reports whether f is attached to a terminal. Colors and emojis
// are only worth printing when it is.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func removeEmojiFromString(s string) string {
	return emojiRe.ReplaceAllString(s, "")
}

// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import "regexp"

// Small local models routinely drop the opening quote of an object key,
// producing `{label": "x"}` instead of `{"label": "x"}`. The pattern
// matches a key missing its opening quote right after { or , and
// reinstates it.
var unquotedKeyPattern = regexp.MustCompile(`([{,]\s*)([A-Za-z][A-Za-z_ ]*)(":)`)

// repairJSON fixes the malformed-key issue described above. Well-formed
// input passes through unchanged; anything the pattern cannot fix is left
// for json.Unmarshal to reject.
func repairJSON(s string) string {
	return unquotedKeyPattern.ReplaceAllString(s, `$1"$2$3`)
}

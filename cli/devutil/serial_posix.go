//
// Copyright (c) 2014-2019 Cesanta Software Limited
// All rights reserved
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
//
//go:build !windows
// +build !windows

package devutil

import (
	"path/filepath"
	"sort"
	"strings"
)

// globPorts expands patterns in order, each group sorted, skipping
// duplicates and names that contain any of skip.
func globPorts(patterns []string, skip ...string) []string {
	seen := map[string]bool{}
	var res []string
	for _, pat := range patterns {
		list, _ := filepath.Glob(pat)
		sort.Strings(list)
	next:
		for _, p := range list {
			if seen[p] {
				continue
			}
			for _, s := range skip {
				if strings.Contains(p, s) {
					continue next
				}
			}
			seen[p] = true
			res = append(res, p)
		}
	}
	return res
}

// onboardPort reports UARTs of the machine itself, never a programmer.
func onboardPort(name string) bool {
	return strings.HasPrefix(filepath.Base(name), "ttyS")
}

// Copyright 2024 Fortio Authors
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

// Command splittimer is a line-oriented speedrun timer: it reads timing
// commands one per line from stdin and drives an in-process Timer, the
// way `fortio` itself is a thin main.go wrapping cli.Main().
package main

import "speedruntimer/cli"

func main() {
	cli.Main()
}

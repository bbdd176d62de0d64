// Copyright 2017 Istio Authors
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

// This package has moved to [fortio.org/log] (and [fortio.org/dflag/dynloglevel]
// for the dynamic flag setup and the [fortio.org/dflag/dynloglevel.ChangeFlagsDefault] function).
package log // import "speedruntimer/log"

// Copyright (c) 2017 Intel Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package conf wraps kingpin to provide:
- environment parsing with the JUICE_ prefix,
- config dump in "allexport" shell format with current values of registered flags,
- new types of flags e.g. SliceFlag,
- predefined flags for logging (logrus integration) and metadata storage,
- a static command table validated before anything is parsed.
*/
package conf

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

package juice

// DefaultRallyDirectory is the directory of rally scenarios run when no file is given.
const DefaultRallyDirectory = "keystone"

// Scenarios are the keystone rally scenarios benchmarked by the experiments.
var Scenarios = []string{
	"keystone/authenticate-user-and-validate-token.yaml",
	"keystone/create-add-and-list-user-roles.yaml",
	"keystone/create-and-list-tenants.yaml",
	"keystone/get-entities.yaml",
	"keystone/create-and-update-user.yaml",
	"keystone/create-user-update-password.yaml",
	"keystone/create-user-set-enabled-and-delete.yaml",
	"keystone/create-and-list-users.yaml",
}

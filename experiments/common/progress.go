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

package common

import (
	"github.com/sirupsen/logrus"
	"gopkg.in/cheggaaa/pb.v1"
)

// progressBar returns a bar over total combinations, or nil when logs would print over it.
func progressBar(total int, level logrus.Level) *pb.ProgressBar {
	if total == 0 || level > logrus.ErrorLevel {
		return nil
	}
	bar := pb.New(total).Prefix("Combinations ")
	bar.ShowTimeLeft = true
	return bar.Start()
}

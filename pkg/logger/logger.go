// logger.go
//
// A scalable, high performance drop-in replacement for the edukit nodejs content service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of edukit-content.
// edukit-content is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// edukit-content is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with edukit-content.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger. In development the log also
// goes to logs/server.log; in production it is stdout-only JSON for the
// container runtime to collect.
func Init(appEnv string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var w io.Writer = os.Stdout
	if appEnv != "production" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)

		if err := os.MkdirAll("logs", os.ModePerm); err == nil {
			file, err := os.OpenFile("logs/server.log",
				os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err == nil {
				w = zerolog.MultiLevelWriter(os.Stdout, file)
			}
		}
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

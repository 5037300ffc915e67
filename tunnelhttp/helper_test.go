// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tunnelhttp_test

import (
	"errors"

	"code.hybscloud.com/kont"

	"code.hybscloud.com/store/tunnelhttp"
)

func rightData(code int, body string) kont.Either[tunnelhttp.RequestError, tunnelhttp.ResponseData] {
	return kont.Right[tunnelhttp.RequestError](tunnelhttp.ResponseData{
		Metadata: tunnelhttp.ResponseMetadata{StatusCode: code},
		Data:     []byte(body),
	})
}

func leftError(msg string) kont.Either[tunnelhttp.RequestError, tunnelhttp.ResponseData] {
	return kont.Left[tunnelhttp.RequestError, tunnelhttp.ResponseData](tunnelhttp.RequestError{Err: errors.New(msg)})
}

// @title           FEIN Extraction API
// @version         1.0
// @description     Turns uploaded loan disclosure PDFs into structured financial fields with confidence scores, synchronously when fast enough and through background jobs otherwise.

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package utils

//swagger init
//swag init -g internal/adapter/utils/docs_info.go --parseDependency --parseInternal --dir ./ --output ./cmd/api/docs

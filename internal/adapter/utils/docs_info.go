// @title           StudyRAG API
// @version         1.0
// @description     Retrieval over a subject organised study corpus, with exam style answers.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support
// @contact.url
// @contact.email   ank.github@gmail.com

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package utils

//run redis (optional, query embedding cache)
//docker run -p 6379:6379 -d redis

//build the corpus before starting the api
//go run ./cmd/ingest -raw data/raw_pdfs -corpus data/faiss_index

//swagger init
//swag init -g cmd/api/main.go --parseDependency --parseInternal --dir ./ --output ./cmd/api/docs

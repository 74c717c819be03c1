package docs

// @title 广告成效分析服务 API
// @version 1.0
// @description 读取广告成效数据，生成分析洞察与经过结构校验、品质评分的优化建议
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
// @schemes http https

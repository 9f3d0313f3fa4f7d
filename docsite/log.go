package docsite

import "github.com/tliron/commonlog"

var log = commonlog.GetLogger("plugintools.docsite")

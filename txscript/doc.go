// 通常包含包的文档说明，描述 txscript 包的目的和总体用途

/*
txscript 包从比特币交易中提取嵌入在 taproot 脚本路径中的程序。

# 信封

程序放在 tapscript 中一个永远不会执行的分支里：

	<32 字节公钥> OP_CHECKSIG OP_0 OP_IF
	  <"vital"> <程序字节>
	OP_ENDIF

Extract 逐字节校验该格式，任何偏差都视为没有程序，而不是错误。
大多数脚本路径都不携带程序，这是最常见的情况。

# 见证

一个输入的候选脚本是它的 tapscript：剥离可选的附件（annex）之后，
控制块之前的那个见证元素。只有一个元素的见证是密钥路径花费，不携带脚本。

ExtractPrograms 对交易的每个输入执行上述步骤，按输入顺序返回 (输入下标, 程序) 对。
*/
package txscript
